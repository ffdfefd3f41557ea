// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth, PadWidth, StringWidth: terminal-column aware layout
//   - SingleLine: collapse line breaks for list rows
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
package util
