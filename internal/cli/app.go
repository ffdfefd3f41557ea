// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jeranaias/babypolicy-chat/internal/auth"
	"github.com/jeranaias/babypolicy-chat/internal/config"
	"github.com/jeranaias/babypolicy-chat/internal/gateway"
	"github.com/jeranaias/babypolicy-chat/internal/logging"
	"github.com/jeranaias/babypolicy-chat/internal/session"
)

// =============================================================================
// CONFIG
// =============================================================================

// loadConfig reads the config file and applies flag overrides. Flags take
// precedence over the environment, which takes precedence over the file.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.ConfigPath != "" {
		cfg, err = config.LoadFromPath(f.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		if cfg == nil {
			return nil, err
		}
		// A broken file falls back to defaults
		logging.Logger().Warn("config load failed, using defaults", "error", err)
	}

	if f.APIURL != "" {
		cfg.Gateway.BaseURL = f.APIURL
	}
	if f.Token != "" {
		cfg.Auth.Token = f.Token
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	config.SetGlobal(cfg)
	return cfg, nil
}

// configPath is where config set writes.
func (f *globalFlags) configPath() (string, error) {
	if f.ConfigPath != "" {
		return f.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// =============================================================================
// APP
// =============================================================================

// app holds the collaborators a client command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *gateway.Client
	file   *auth.FileSource
	tokens auth.Source
}

// appOptions adjusts newApp for a particular command.
type appOptions struct {
	// LogPath overrides the configured log destination
	LogPath string
	// Watch starts the token file watcher when the config enables it
	Watch bool
}

func newApp(ctx context.Context, flags *globalFlags, opts appOptions) (*app, error) {
	cfg, err := flags.loadConfig()
	if err != nil {
		return nil, err
	}

	logPath := opts.LogPath
	if logPath == "" {
		if logPath, err = cfg.LogPath(); err != nil {
			return nil, err
		}
	}
	logger, err := logging.Setup(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Path:   logPath,
	})
	if err != nil {
		return nil, err
	}

	tokenPath, err := cfg.TokenPath()
	if err != nil {
		logging.Close()
		return nil, err
	}
	file := auth.NewFileSource(tokenPath)
	if opts.Watch && cfg.Auth.Watch {
		if err := file.Watch(ctx, logger); err != nil {
			logger.Warn("token watcher disabled", "error", err)
		}
	}

	client := gateway.NewClient(&gateway.ClientConfig{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: cfg.Gateway.Timeout(),
	})

	logger.Debug("client configured", "base_url", client.BaseURL(), "token_file", tokenPath)
	return &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		file:   file,
		tokens: auth.Chain{auth.Static(cfg.Auth.Token), file},
	}, nil
}

// token returns the current bearer token, or "" when none is stored. The
// gateway turns an empty token into its missing-credential error.
func (a *app) token() (string, error) {
	tok, err := a.tokens.Token()
	switch {
	case errors.Is(err, auth.ErrNoToken):
		return "", nil
	case err != nil:
		return "", gateway.CredentialError(err)
	}
	return tok, nil
}

// controller creates a session controller bound to ctx.
func (a *app) controller(ctx context.Context) *session.Controller {
	return session.New(session.Options{
		Gateway:     a.client,
		Tokens:      a.tokens,
		Logger:      a.logger,
		WelcomeText: a.cfg.UI.WelcomeMessage,
		Context:     ctx,
	})
}

func (a *app) close() {
	logging.Close()
}

// userError shows the gateway's description of a failure while keeping
// the cause available to errors.Is.
type userError struct{ err error }

func (e userError) Error() string { return gateway.Describe(e.err) }
func (e userError) Unwrap() error { return e.err }

// describe turns a gateway failure into the message shown to users.
func describe(err error) error {
	if err == nil {
		return nil
	}
	return userError{err}
}
