// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jeranaias/babypolicy-chat/internal/auth"
)

func newTokenCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "로그인 토큰을 관리합니다",
	}
	cmd.AddCommand(newTokenSetCmd(flags), newTokenShowCmd(flags), newTokenClearCmd(flags))
	return cmd
}

func newTokenSetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set [TOKEN]",
		Short: "토큰을 저장합니다 (생략하면 입력을 읽습니다)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			path, err := cfg.TokenPath()
			if err != nil {
				return err
			}

			var token string
			if len(args) == 1 {
				token = args[0]
			} else if token, err = readSecret(cmd); err != nil {
				return err
			}

			if err := auth.SaveToken(path, token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("토큰을 저장했습니다: ")+path)
			return nil
		},
	}
}

func newTokenShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "저장된 토큰을 가려서 보여줍니다",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			path, err := cfg.TokenPath()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, RenderLabel("file")+path)

			source := "file"
			token, err := auth.NewFileSource(path).Token()
			if cfg.Auth.Token != "" {
				source = "config/env/flag"
				token, err = auth.Static(cfg.Auth.Token).Token()
			}
			switch {
			case errors.Is(err, auth.ErrNoToken):
				fmt.Fprintln(out, RenderLabel("token")+WarningStyle.Render("없음"))
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintln(out, RenderLabel("source")+source)
			fmt.Fprintln(out, RenderLabel("token")+auth.Mask(token))
			return nil
		},
	}
}

func newTokenClearCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "저장된 토큰을 삭제합니다",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			path, err := cfg.TokenPath()
			if err != nil {
				return err
			}
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("토큰을 삭제했습니다."))
			return nil
		},
	}
}

// readSecret reads a token without echo from a terminal, or the first line
// of piped input.
func readSecret(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
