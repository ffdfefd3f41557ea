// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/babypolicy-chat/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "dev.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// stepClock returns a clock that advances one second per call.
func stepClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestStore_CreateAndGetConversation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "u1", "임신 중 지원금")
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Nil(t, conv.LastMessageAt)

	got, err := s.GetConversation(ctx, "u1", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "임신 중 지원금", got.Title)
	assert.Equal(t, conv.CreatedAt.UnixMicro(), got.CreatedAt.UnixMicro())

	_, err = s.GetConversation(ctx, "u2", conv.ID)
	assert.ErrorIs(t, err, ErrNotFound, "other users cannot see it")
}

func TestStore_ListOrdersByActivity(t *testing.T) {
	s := openTestStore(t)
	s.now = stepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := s.CreateConversation(ctx, "u1", "first")
	require.NoError(t, err)
	second, err := s.CreateConversation(ctx, "u1", "second")
	require.NoError(t, err)
	_, err = s.CreateConversation(ctx, "u2", "other user")
	require.NoError(t, err)

	// A message in the older conversation makes it the most recent
	_, err = s.AddMessage(ctx, Message{ConversationID: first.ID, Role: model.RoleUser, Content: "hi"})
	require.NoError(t, err)

	convs, err := s.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, first.ID, convs[0].ID)
	assert.Equal(t, second.ID, convs[1].ID)
	require.NotNil(t, convs[0].LastMessageAt)
}

func TestStore_ListEmpty(t *testing.T) {
	s := openTestStore(t)
	convs, err := s.ListConversations(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, convs)
	assert.Empty(t, convs)
}

func TestStore_DeleteCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "u1", "t")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, Message{ConversationID: conv.ID, Role: model.RoleUser, Content: "a"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteConversation(ctx, "u2", conv.ID), ErrNotFound)
	require.NoError(t, s.DeleteConversation(ctx, "u1", conv.ID))
	assert.ErrorIs(t, s.DeleteConversation(ctx, "u1", conv.ID), ErrNotFound)

	msgs, err := s.Messages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestStore_MessagesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	s.now = stepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "u1", "t")
	require.NoError(t, err)

	_, err = s.AddMessage(ctx, Message{ConversationID: conv.ID, Role: model.RoleUser, Content: "부모급여"})
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, Message{
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        "월 100만원",
		Sources:        []model.Source{{DocID: "parent-benefit", Content: "0~11개월", Score: 0.8}},
		Action:         &model.Action{Name: model.ActionCreateCalendarEvent, Arguments: map[string]any{"title": "신청"}},
	})
	require.NoError(t, err)

	msgs, err := s.Messages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Empty(t, msgs[0].Sources)
	assert.Nil(t, msgs[0].Action)

	assert.Equal(t, "월 100만원", msgs[1].Content)
	require.Len(t, msgs[1].Sources, 1)
	assert.Equal(t, "parent-benefit", msgs[1].Sources[0].DocID)
	require.NotNil(t, msgs[1].Action)
	assert.Equal(t, "신청", msgs[1].Action.StringArg("title"))
}

func TestStore_MessagesSameInstantKeepInsertOrder(t *testing.T) {
	s := openTestStore(t)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "u1", "t")
	require.NoError(t, err)
	for _, c := range []string{"1", "2", "3"} {
		_, err := s.AddMessage(ctx, Message{ConversationID: conv.ID, Role: model.RoleUser, Content: c})
		require.NoError(t, err)
	}

	msgs, err := s.Messages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "1", msgs[0].Content)
	assert.Equal(t, "3", msgs[2].Content)
}

func TestStore_AddMessageUnknownConversation(t *testing.T) {
	s := openTestStore(t)
	_, err := s.AddMessage(context.Background(), Message{ConversationID: "missing", Role: model.RoleUser, Content: "a"})
	assert.Error(t, err, "foreign key should reject orphan messages")
}

// =============================================================================
// CALENDAR TESTS
// =============================================================================

func TestStore_Events(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateEvent(ctx, CalendarEvent{UserID: "u1", Title: "늦은 일정", EventDate: "2025-05-01"})
	require.NoError(t, err)
	ev, err := s.CreateEvent(ctx, CalendarEvent{UserID: "u1", Title: "부모급여 신청", EventDate: "2025-03-01"})
	require.NoError(t, err)
	assert.NotZero(t, ev.ID)
	_, err = s.CreateEvent(ctx, CalendarEvent{UserID: "u2", Title: "x", EventDate: "2025-01-01"})
	require.NoError(t, err)

	events, err := s.Events(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "부모급여 신청", events[0].Title)
	assert.Equal(t, "2025-05-01", events[1].EventDate)
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.CreateConversation(context.Background(), "u1", "t")
	assert.NoError(t, err)
}
