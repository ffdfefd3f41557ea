// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth supplies the bearer token issued by the identity service.
//
// Token issuance happens elsewhere; this package only reads what the login
// flow left behind, either a configured string or a token file.
//
// # Key Types
//
//   - Source: anything that can return the current token
//   - Static: a fixed token from config or the environment
//   - FileSource: a token file, optionally watched with fsnotify
//   - Chain: first non-empty token wins
//
// # Usage
//
//	src := auth.Chain{auth.Static(cfg.Auth.Token), auth.NewFileSource(path)}
//	tok, err := src.Token()
package auth
