// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "나"
	case RoleAssistant:
		return "육아 정책 도우미"
	default:
		return string(r)
	}
}

// Valid reports whether r is a role the client knows how to render.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// SOURCES AND ACTIONS
// =============================================================================

// Source is a policy document fragment the assistant cited in a reply.
type Source struct {
	DocID   string  `json:"doc_id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	ChunkID string  `json:"chunk_id,omitempty"`
	Page    int     `json:"page,omitempty"`
}

// Action is a side effect the assistant proposed inside a reply, such as
// creating a calendar reminder for an application deadline.
type Action struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ActionCreateCalendarEvent is the action name for adding a calendar event.
const ActionCreateCalendarEvent = "create_calendar_event"

// Label returns a short description of the action for display.
func (a *Action) Label() string {
	if a == nil {
		return ""
	}
	switch a.Name {
	case ActionCreateCalendarEvent:
		title := a.StringArg("title")
		date := a.StringArg("event_date")
		if title == "" {
			return "캘린더에 일정 추가"
		}
		if date == "" {
			return "캘린더에 추가: " + title
		}
		return "캘린더에 추가: " + title + " (" + date + ")"
	default:
		return a.Name
	}
}

// StringArg returns the named argument if it is a string.
func (a *Action) StringArg(name string) string {
	if a == nil || a.Arguments == nil {
		return ""
	}
	s, _ := a.Arguments[name].(string)
	return s
}

// ArgumentKeys returns the argument names in sorted order.
func (a *Action) ArgumentKeys() []string {
	if a == nil {
		return nil
	}
	keys := make([]string, 0, len(a.Arguments))
	for k := range a.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single turn in a conversation. Messages are treated as
// immutable once they have been appended to a log.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Assistant-only rendering data
	Sources []Source `json:"sources,omitempty"`
	Action  *Action  `json:"action,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// MessageFromReply builds the assistant message for a gateway reply.
// The server supplied id is used when present.
func MessageFromReply(r *Reply) Message {
	msg := NewAssistantMessage(r.Answer)
	if r.MessageID != "" {
		msg.ID = r.MessageID
	}
	msg.Sources = r.Sources
	msg.Action = r.Action
	return msg
}

// HasAction reports whether the message carries a proposed action.
func (m Message) HasAction() bool {
	return m.Action != nil && m.Action.Name != ""
}

// TopSources returns at most n sources in the order the server ranked them.
func (m Message) TopSources(n int) []Source {
	if len(m.Sources) <= n {
		return m.Sources
	}
	return m.Sources[:n]
}

// Preview returns a truncated single-line preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	content := strings.ReplaceAll(m.Content, "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// REPLY TYPE
// =============================================================================

// Reply is the gateway's answer to a sent message.
type Reply struct {
	Answer         string
	ConversationID string
	MessageID      string
	Sources        []Source
	Action         *Action
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// NewID creates a unique message ID.
func NewID() string {
	return uuid.NewString()
}
