// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for the policy assistant backend.
package gateway

import (
	"time"

	"github.com/jeranaias/babypolicy-chat/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the request body for POST /chat.
type ChatRequest struct {
	Message        string  `json:"message"`
	ConversationID *string `json:"conversation_id"` // null starts a new conversation
}

// FunctionRequest is the request body for POST /chat/function.
type FunctionRequest struct {
	Name           string         `json:"name"`
	Arguments      map[string]any `json:"arguments"`
	ConversationID *string        `json:"conversation_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// FunctionCall is an action proposal as it appears on the wire.
type FunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ChatResponse is the response body for POST /chat.
type ChatResponse struct {
	Answer         string         `json:"answer"`
	ConversationID string         `json:"conversation_id"`
	MessageID      string         `json:"message_id,omitempty"`
	Sources        []model.Source `json:"sources"`
	FunctionCall   *FunctionCall  `json:"function_call,omitempty"`
}

// ConversationRecord is one entry of GET /conversations.
type ConversationRecord struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at"`
}

// MessageRecord is one entry of GET /conversations/{id}/messages.
type MessageRecord struct {
	ID           string         `json:"id"`
	Role         string         `json:"role"`
	Content      string         `json:"content"`
	RagSources   []model.Source `json:"rag_sources,omitempty"`
	FunctionCall *FunctionCall  `json:"function_call,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// FunctionResponse is the response body for POST /chat/function.
type FunctionResponse struct {
	Message string `json:"message"`
}

// errorBody is the JSON error envelope the backend returns.
type errorBody struct {
	Detail string `json:"detail"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func (f *FunctionCall) toAction() *model.Action {
	if f == nil || f.Name == "" {
		return nil
	}
	args := f.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return &model.Action{Name: f.Name, Arguments: args}
}

func (r *ChatResponse) toReply() *model.Reply {
	return &model.Reply{
		Answer:         r.Answer,
		ConversationID: r.ConversationID,
		MessageID:      r.MessageID,
		Sources:        r.Sources,
		Action:         r.FunctionCall.toAction(),
	}
}

func (r ConversationRecord) toConversation() model.Conversation {
	conv := model.Conversation{
		ID:        r.ID,
		Title:     r.Title,
		CreatedAt: r.CreatedAt,
	}
	if r.LastMessageAt != nil {
		conv.LastMessageAt = *r.LastMessageAt
	}
	return conv
}

func (r MessageRecord) toMessage() model.Message {
	msg := model.Message{
		ID:        r.ID,
		Role:      model.Role(r.Role),
		Content:   r.Content,
		Timestamp: r.CreatedAt,
		Sources:   r.RagSources,
		Action:    r.FunctionCall.toAction(),
	}
	if msg.ID == "" {
		msg.ID = model.NewID()
	}
	return msg
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
