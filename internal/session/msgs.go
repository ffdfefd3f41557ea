// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/babypolicy-chat/internal/model"
)

// =============================================================================
// ASYNC RESULTS
// =============================================================================

// SendResultMsg is delivered when a send completes.
type SendResultMsg struct {
	View  ViewKey
	Reply *model.Reply
	Err   error
}

// ConversationsMsg is delivered when a directory refresh completes.
type ConversationsMsg struct {
	Seq           uint64
	Conversations []model.Conversation
	Err           error
}

// ConversationLoadedMsg is delivered when a selected conversation's history
// has been fetched.
type ConversationLoadedMsg struct {
	Seq            uint64
	ConversationID string
	Messages       []model.Message
	Err            error
}

// DeleteResultMsg is delivered when a delete completes.
type DeleteResultMsg struct {
	ConversationID string
	Err            error
}

// ActionResultMsg is delivered when an action execution completes.
type ActionResultMsg struct {
	View      ViewKey
	MessageID string
	Name      string
	Text      string
	Err       error
}

// =============================================================================
// PRESENTATION SIGNALS
// =============================================================================

// ScrollToLatestMsg asks the presentation layer to show the newest message.
type ScrollToLatestMsg struct{}

// ScrollToLatestCmd emits a ScrollToLatestMsg.
func ScrollToLatestCmd() tea.Cmd {
	return func() tea.Msg {
		return ScrollToLatestMsg{}
	}
}

func resultCmd(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}
