// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide slog logger.
//
// The TUI owns the terminal, so logs go to ~/.babypolicy/babypolicy.log by
// default. Directory failures and devserver requests are recorded here.
//
// # Usage
//
//	logger, err := logging.Setup(logging.Options{Level: "debug", Path: path})
//	defer logging.Close()
package logging
