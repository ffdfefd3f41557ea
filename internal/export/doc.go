// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to Markdown or JSON files.
//
// # Key Types
//
//   - Transcript: a titled list of messages ready for export
//   - Exporter: converts a Transcript to one file format
//   - Options: output directory and which details to include
//
// # Usage
//
//	t := export.NewTranscript(convID, title, ctrl.Messages())
//	exp, err := export.ForFormat("md", nil)
//	path, err := export.ToFile(t, exp, &export.Options{OutputDir: "."})
package export
