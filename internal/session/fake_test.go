// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/babypolicy-chat/internal/auth"
	"github.com/jeranaias/babypolicy-chat/internal/gateway"
	"github.com/jeranaias/babypolicy-chat/internal/model"
)

// fakeGateway is an in-memory backend. Commands are executed on the test
// goroutine, so no locking is needed.
type fakeGateway struct {
	sendFn func(text, conversationID string) (*model.Reply, error)
	execFn func(action model.Action, conversationID string) (string, error)

	convs      []model.Conversation
	listErr    error
	histories  map[string][]model.Message
	historyErr error
	deleteErr  error

	sends, lists, loads, deletes, execs int
	sentTexts                           []string
	lastExecConversation                string
	lastToken                           string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{histories: make(map[string][]model.Message)}
}

func (f *fakeGateway) SendMessage(ctx context.Context, token, text, conversationID string) (*model.Reply, error) {
	f.sends++
	f.lastToken = token
	f.sentTexts = append(f.sentTexts, text)
	if f.sendFn != nil {
		return f.sendFn(text, conversationID)
	}
	id := conversationID
	if id == "" {
		id = "c1"
	}
	return &model.Reply{Answer: "답변: " + text, ConversationID: id}, nil
}

func (f *fakeGateway) ExecuteAction(ctx context.Context, token string, action model.Action, conversationID string) (string, error) {
	f.execs++
	f.lastExecConversation = conversationID
	if f.execFn != nil {
		return f.execFn(action, conversationID)
	}
	return "캘린더에 추가했어요.", nil
}

func (f *fakeGateway) ListConversations(ctx context.Context, token string) ([]model.Conversation, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Conversation(nil), f.convs...), nil
}

func (f *fakeGateway) GetConversationMessages(ctx context.Context, token, conversationID string) ([]model.Message, error) {
	f.loads++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	msgs, ok := f.histories[conversationID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return msgs, nil
}

func (f *fakeGateway) DeleteConversation(ctx context.Context, token, conversationID string) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, c := range f.convs {
		if c.ID == conversationID {
			f.convs = append(f.convs[:i], f.convs[i+1:]...)
			break
		}
	}
	delete(f.histories, conversationID)
	return nil
}

func newTestController(t *testing.T, gw *fakeGateway) *Controller {
	t.Helper()
	return New(Options{Gateway: gw, Tokens: auth.Static("tok")})
}

// submit sends text and drives the controller until idle.
func submit(t *testing.T, c *Controller, text string) {
	t.Helper()
	cmd, ok := c.Submit(text)
	if !ok {
		t.Fatalf("Submit(%q) was rejected", text)
	}
	Run(c, cmd)
}

// deliver feeds already-collected results back into the controller.
func deliver(c *Controller, msgs []tea.Msg) []tea.Msg {
	var passed []tea.Msg
	for _, m := range msgs {
		passed = append(passed, Run(c, resultCmd(m))...)
	}
	return passed
}

// results collects cmd and keeps only messages the controller owns.
func results(cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	for _, m := range Collect(cmd) {
		if owns(m) {
			out = append(out, m)
		}
	}
	return out
}

func conv(id, title string, last time.Time) model.Conversation {
	return model.Conversation{ID: id, Title: title, CreatedAt: last.Add(-time.Hour), LastMessageAt: last}
}
