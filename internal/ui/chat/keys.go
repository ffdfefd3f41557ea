// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat screen.
type KeyMap struct {
	// Input
	Submit  key.Binding
	Newline key.Binding

	// Conversation
	NewChat       key.Binding
	ToggleSidebar key.Binding
	RunAction     key.Binding
	PrevAction    key.Binding
	NextAction    key.Binding

	// Sidebar
	Up     key.Binding
	Down   key.Binding
	Open   key.Binding
	Delete key.Binding

	// Dialogs
	Confirm key.Binding
	Deny    key.Binding

	// Scrolling
	PageUp   key.Binding
	PageDown key.Binding

	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings. Enter sends; Alt+Enter
// (or Ctrl+J on terminals that swallow Alt) inserts a line break.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "보내기"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "줄바꿈"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "새 대화"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "대화 목록"),
		),
		RunAction: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "제안 실행"),
		),
		PrevAction: key.NewBinding(
			key.WithKeys("alt+up", "ctrl+p"),
			key.WithHelp("ctrl+p", "이전 제안"),
		),
		NextAction: key.NewBinding(
			key.WithKeys("alt+down", "ctrl+o"),
			key.WithHelp("ctrl+o", "다음 제안"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "위로"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "아래로"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "열기"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "삭제"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "확인"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "취소"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "위로 스크롤"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "아래로 스크롤"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "종료"),
		),
	}
}

// =============================================================================
// KEY BINDING HELPERS
// =============================================================================

// ShortHelp returns the bindings shown in the status bar while typing.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Newline, k.ToggleSidebar, k.NewChat, k.RunAction, k.Quit}
}

// SidebarHelp returns the bindings shown while the sidebar has focus.
func (k KeyMap) SidebarHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Delete, k.ToggleSidebar, k.Quit}
}

// DialogHelp returns the bindings shown while a confirmation is open.
func (k KeyMap) DialogHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Deny}
}
