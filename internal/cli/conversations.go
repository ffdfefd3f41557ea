// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/babypolicy-chat/internal/export"
	"github.com/jeranaias/babypolicy-chat/internal/util"
)

func newConversationsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "지난 대화를 관리합니다",
	}
	cmd.AddCommand(
		newConversationsListCmd(flags),
		newConversationsDeleteCmd(flags),
		newConversationsExportCmd(flags),
	)
	return cmd
}

// conversationJSON is the --json form of a listed conversation.
type conversationJSON struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ActivityAt string `json:"activity_at,omitempty"`
}

func newConversationsListCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "대화 목록을 최근 순으로 보여줍니다",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, flags, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			token, err := a.token()
			if err != nil {
				return err
			}
			convs, err := a.client.ListConversations(ctx, token)
			if err != nil {
				return describe(err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				items := make([]conversationJSON, 0, len(convs))
				for _, c := range convs {
					item := conversationJSON{ID: c.ID, Title: c.DisplayTitle()}
					if at := c.ActivityAt(); !at.IsZero() {
						item.ActivityAt = at.UTC().Format("2006-01-02T15:04:05Z")
					}
					items = append(items, item)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			if len(convs) == 0 {
				fmt.Fprintln(out, DimStyle.Render("대화가 없습니다."))
				return nil
			}
			for i, c := range convs {
				fmt.Fprintf(out, "%2d. %s  %s  %s\n", i+1,
					util.PadWidth(util.TruncateWidth(c.DisplayTitle(), 40), 40),
					DimStyle.Render(formatActivity(c)),
					DimStyle.Render(c.ID))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newConversationsDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "대화를 삭제합니다",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, flags, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			token, err := a.token()
			if err != nil {
				return err
			}
			if err := a.client.DeleteConversation(ctx, token, args[0]); err != nil {
				return describe(err)
			}
			a.logger.Info("conversation deleted", "conversation_id", args[0])
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("삭제했습니다: ")+args[0])
			return nil
		},
	}
}

func newConversationsExportCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		outDir string
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "대화를 Markdown 또는 JSON 파일로 저장합니다",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := export.ForFormat(format, nil)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, flags, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			token, err := a.token()
			if err != nil {
				return err
			}
			id := args[0]
			msgs, err := a.client.GetConversationMessages(ctx, token, id)
			if err != nil {
				return describe(err)
			}

			// The title lives on the listing only
			title := ""
			if convs, err := a.client.ListConversations(ctx, token); err == nil {
				for _, c := range convs {
					if c.ID == id {
						title = c.Title
						break
					}
				}
			} else {
				a.logger.Warn("conversation title lookup failed", "conversation_id", id, "error", err)
			}

			t := export.NewTranscript(id, title, msgs)
			if stdout {
				data, err := exp.Export(t)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			path, err := export.ToFile(t, exp, &export.Options{
				OutputDir:         outDir,
				IncludeSources:    true,
				IncludeTimestamps: true,
			})
			if err != nil {
				return err
			}
			a.logger.Info("conversation exported", "conversation_id", id, "path", path)
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("저장했습니다: ")+path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md or json")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write to stdout instead of a file")
	return cmd
}
