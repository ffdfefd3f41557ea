// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/babypolicy-chat/internal/devserver"
	"github.com/jeranaias/babypolicy-chat/internal/storage"
)

func newDevServerCmd(flags *globalFlags) *cobra.Command {
	var (
		addr   string
		dbPath string
		rate   int
	)
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "로컬 개발용 백엔드를 실행합니다",
		Long: "sqlite에 대화를 저장하는 개발용 백엔드를 실행합니다. " +
			"정책 목록에서 키워드로 답을 찾고 캘린더 일정 추가를 제안합니다.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// The terminal is free here, so logs default to stderr
			opts := appOptions{}
			if cfg, err := flags.loadConfig(); err == nil && cfg.Log.File == "" {
				opts.LogPath = "-"
			}
			a, err := newApp(ctx, flags, opts)
			if err != nil {
				return err
			}
			defer a.close()

			cfg := a.cfg.DevServer
			if addr != "" {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("rate") {
				cfg.RatePerMinute = rate
			}
			if dbPath == "" {
				if dbPath, err = a.cfg.DatabasePath(); err != nil {
					return err
				}
			}

			store, err := storage.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := devserver.New(devserver.Options{
				Addr:          cfg.Addr,
				Store:         store,
				Assistant:     devserver.NewAssistant(nil),
				Tokens:        cfg.Tokens,
				RatePerMinute: cfg.RatePerMinute,
				Logger:        a.logger,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, TitleStyle.Render("devserver"))
			fmt.Fprintln(out, RenderLabel("api")+fmt.Sprintf("http://%s/api", srv.Addr()))
			fmt.Fprintln(out, RenderLabel("database")+dbPath)
			for _, tok := range sortedKeys(cfg.Tokens) {
				fmt.Fprintln(out, RenderLabel("user")+fmt.Sprintf("%s (token %s)", cfg.Tokens[tok], tok))
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: devserver.addr)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (default: devserver.database_path)")
	cmd.Flags().IntVar(&rate, "rate", 0, "requests per minute per token, 0 disables limiting")
	return cmd
}
