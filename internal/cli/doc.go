// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the babypolicy command line.
//
// The root command opens the full-screen chat. When stdin or stdout is not a
// terminal, or --plain is given, the same session controller is driven by a
// line-mode REPL instead.
//
// # Key Types
//
//   - REPL: line-mode chat over a session.Controller
//   - LineReader: prompt source for the REPL (liner in production)
//
// # Usage
//
//	os.Exit(cli.Execute())
//
// # Commands Overview
//
//   - chat [--plain]: interactive chat (same as running with no command)
//   - conversations list|delete: manage past conversations
//   - token set|show|clear: manage the bearer token file
//   - config show|get|set|keys|path: inspect and edit ~/.babypolicy/config.toml
//   - devserver: run the sqlite-backed development backend
//
// Global flags --config, --api-url and --token override the config file and
// the environment.
package cli
