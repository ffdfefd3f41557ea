// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for babypolicy.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - GatewayConfig: Backend API root and request timeout
//   - AuthConfig: Where the bearer token comes from
//   - DevServerConfig: Local development backend
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (BABYPOLICY_*)
//   - ~/.babypolicy/config.toml
//   - ~/.babypolicy/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := gateway.NewClient(&gateway.ClientConfig{
//	    BaseURL: cfg.Gateway.BaseURL,
//	    Timeout: cfg.Gateway.Timeout(),
//	})
package config
