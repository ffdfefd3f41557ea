// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	// ConfigPath overrides the default config location
	ConfigPath string
	// APIURL overrides gateway.base_url
	APIURL string
	// Token overrides the stored bearer token
	Token string
}

// NewRootCmd builds the command tree. Without a subcommand the root runs
// the chat screen.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var plain bool

	root := &cobra.Command{
		Use:           "babypolicy",
		Short:         "육아 정책 도우미 채팅 클라이언트",
		Long:          "육아 정책 도우미와 대화하고, 지난 대화를 관리하고, 제안된 일정을 캘린더에 추가합니다.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, flags, plain)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.ConfigPath, "config", "", "config file (default: ~/.babypolicy/config.toml)")
	pf.StringVar(&flags.APIURL, "api-url", "", "backend API root, e.g. http://localhost:8000/api")
	pf.StringVar(&flags.Token, "token", "", "bearer token (default: token file)")
	root.Flags().BoolVar(&plain, "plain", false, "use the line-mode REPL instead of the full-screen UI")

	root.AddCommand(
		newChatCmd(flags),
		newConversationsCmd(flags),
		newTokenCmd(flags),
		newConfigCmd(flags),
		newDevServerCmd(flags),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}
