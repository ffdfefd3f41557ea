// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the babypolicy TUI.
//
// Colors are lipgloss.AdaptiveColor values so the same palette works on
// light and dark terminals. NewTheme builds every style once.
//
// # Usage
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	bubble := theme.AssistantBubble.Render(text)
package styles
