// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/babypolicy-chat/internal/ui/chat"
	"github.com/jeranaias/babypolicy-chat/internal/ui/styles"
)

func newChatCmd(flags *globalFlags) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "대화 화면을 엽니다",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, flags, plain)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "use the line-mode REPL instead of the full-screen UI")
	return cmd
}

// runChat opens the full-screen UI, or the line-mode REPL when asked to or
// when the terminal cannot host the UI.
func runChat(cmd *cobra.Command, flags *globalFlags, plain bool) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, flags, appOptions{Watch: true})
	if err != nil {
		return err
	}
	defer a.close()

	ctrl := a.controller(ctx)

	if plain || !CanRunTUI() {
		a.logger.Info("starting plain chat")
		in := newLinerReader()
		defer in.Close()
		return NewREPL(ctrl, in, cmd.OutOrStdout()).Run(ctx)
	}

	a.logger.Info("starting chat screen", "theme", a.cfg.UI.Theme)
	m := chat.New(chat.Options{
		Controller:   ctrl,
		Theme:        styles.NewTheme(a.cfg.UI.Theme),
		Markdown:     a.cfg.UI.Markdown,
		SidebarWidth: a.cfg.UI.SidebarWidth,
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
		tea.WithOutput(os.Stdout),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
