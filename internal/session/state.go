// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation session manager.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/babypolicy-chat/internal/model"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Gateway is the backend the controller talks to. *gateway.Client
// satisfies it.
type Gateway interface {
	SendMessage(ctx context.Context, token, text, conversationID string) (*model.Reply, error)
	ExecuteAction(ctx context.Context, token string, action model.Action, conversationID string) (string, error)
	ListConversations(ctx context.Context, token string) ([]model.Conversation, error)
	GetConversationMessages(ctx context.Context, token, conversationID string) ([]model.Message, error)
	DeleteConversation(ctx context.Context, token, conversationID string) error
}

// TokenSource supplies the bearer token. auth.Source satisfies it.
type TokenSource interface {
	Token() (string, error)
}

// =============================================================================
// VIEW KEY
// =============================================================================

// ViewKey identifies what the user was looking at when an async call was
// issued. The generation changes whenever the displayed log is replaced, so
// a completion tagged with an older key belongs to a view that is gone.
type ViewKey struct {
	ConversationID string
	Generation     uint64
}

// Matches reports whether a completion tagged k may still mutate the view
// cur. A key captured before the conversation had an id matches the same
// generation after the id was adopted.
func (k ViewKey) Matches(cur ViewKey) bool {
	if k.Generation != cur.Generation {
		return false
	}
	return k.ConversationID == "" || k.ConversationID == cur.ConversationID
}

// =============================================================================
// NOTICES
// =============================================================================

// Operation names a directory operation that can fail.
type Operation string

const (
	OpRefresh Operation = "refresh"
	OpSelect  Operation = "select"
	OpDelete  Operation = "delete"
)

// Notice reports a failed directory operation. Directory failures never
// touch the message log; they surface here instead.
type Notice struct {
	Op             Operation
	ConversationID string
	Err            error
	At             time.Time
}

// Text returns the user-facing description of the failure.
func (n Notice) Text() string {
	desc := describe(n.Err)
	switch n.Op {
	case OpRefresh:
		return fmt.Sprintf(refreshErrorTemplate, desc)
	case OpSelect:
		return fmt.Sprintf(selectErrorTemplate, desc)
	case OpDelete:
		return fmt.Sprintf(deleteErrorTemplate, desc)
	default:
		return desc
	}
}

// =============================================================================
// SESSION STATE
// =============================================================================

// state is the root aggregate for one visible chat screen. Only Controller
// methods mutate it.
type state struct {
	log       *MessageLog
	directory *Directory
	actions   *ActionTracker

	activeID    string
	generation  uint64
	sidebarOpen bool
	sending     bool

	// Confirmation sub-flows
	pendingDelete string
	pendingAction string

	// Latest select request; older completions are discarded
	selectSeq uint64
	selecting string

	notice *Notice
}

func (s *state) view() ViewKey {
	return ViewKey{ConversationID: s.activeID, Generation: s.generation}
}
