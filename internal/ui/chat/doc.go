// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the full-screen chat interface.
//
// The screen is a thin Bubble Tea shell over session.Controller: key presses
// become controller operations, async results are routed back into the
// controller, and the view is rendered from controller state. The widgets
// themselves (textarea, viewport, spinner) belong to this package.
//
// # Key Types
//
//   - Model: the tea.Model for the chat screen
//   - KeyMap: keyboard bindings, with help text for the status bar
//
// # Layout
//
//	┌ header ─────────────────────────────┐
//	│ sidebar │ message log (viewport)     │
//	│ notice (directory failures)          │
//	│ input, or a confirmation dialog      │
//	└ status bar ─────────────────────────┘
//
// # Usage
//
//	ctrl := session.New(session.Options{Gateway: client, Tokens: tokens})
//	m := chat.New(chat.Options{Controller: ctrl, Theme: theme, Markdown: true})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	_, err := p.Run()
package chat
