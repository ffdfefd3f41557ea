// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/babypolicy-chat/internal/auth"
	"github.com/jeranaias/babypolicy-chat/internal/config"
)

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "설정을 보거나 바꿉니다",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "적용된 설정을 TOML로 보여줍니다",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := flags.loadConfig()
				if err != nil {
					return err
				}
				shown := *cfg
				if shown.Auth.Token != "" {
					shown.Auth.Token = auth.Mask(shown.Auth.Token)
				}
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(shown)
			},
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "설정 값 하나를 보여줍니다 (예: ui.theme)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := flags.loadConfig()
				if err != nil {
					return err
				}
				v, err := cfg.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "설정 값을 바꾸고 파일에 저장합니다",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := flags.configPath()
				if err != nil {
					return err
				}
				if err := setConfigValue(path, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", SuccessStyle.Render("saved"), args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "설정 키 목록",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.GetAllKeys(), "\n"))
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "설정 파일 경로",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := flags.configPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}

// setConfigValue updates one key in the TOML file at path. Environment
// overrides are not applied so they never leak into the file.
func setConfigValue(path, key, value string) error {
	if strings.HasSuffix(path, ".json") {
		return errors.New("config set only writes TOML files")
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	cfg.SetDefaults()

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return config.SaveTOML(cfg, path)
}
