// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/babypolicy-chat/internal/model"
)

func calendarAction(title string) *model.Action {
	return &model.Action{
		Name: model.ActionCreateCalendarEvent,
		Arguments: map[string]any{
			"title":      title,
			"event_date": "2025-03-01T09:00:00",
		},
	}
}

// proposing returns a gateway whose replies carry a calendar proposal.
func proposing() *fakeGateway {
	gw := newFakeGateway()
	n := 0
	gw.sendFn = func(text, id string) (*model.Reply, error) {
		n++
		return &model.Reply{
			Answer:         "일정을 추가할까요?",
			ConversationID: "c1",
			MessageID:      fmt.Sprintf("reply-%d", n),
			Action:         calendarAction(text),
		}, nil
	}
	return gw
}

func TestAction_ConfirmSuccess(t *testing.T) {
	gw := proposing()
	c := newTestController(t, gw)
	submit(t, c, "부모급여 신청")

	require.True(t, c.RequestAction("reply-1"))
	assert.Equal(t, "reply-1", c.PendingAction())

	cmd := c.ConfirmAction()
	assert.Empty(t, c.PendingAction())
	assert.True(t, c.ActionInFlight("reply-1"))

	Run(c, cmd)

	assert.False(t, c.ActionInFlight("reply-1"))
	assert.Equal(t, 1, gw.execs)
	assert.Equal(t, "c1", gw.lastExecConversation)

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, model.RoleAssistant, msgs[3].Role)
	assert.Equal(t, "캘린더에 추가했어요.", msgs[3].Content)
}

func TestAction_FailureAppendsOneMessage(t *testing.T) {
	gw := proposing()
	gw.execFn = func(model.Action, string) (string, error) { return "", errors.New("calendar store unavailable") }
	c := newTestController(t, gw)
	submit(t, c, "부모급여 신청")
	before := len(c.Messages())

	Run(c, c.Execute("reply-1", *calendarAction("x")))

	msgs := c.Messages()
	require.Len(t, msgs, before+1)
	assert.Equal(t, model.RoleAssistant, msgs[before].Role)
	assert.Contains(t, msgs[before].Content, "calendar store unavailable")
	assert.False(t, c.ActionInFlight("reply-1"))
	assert.Zero(t, c.s.actions.Len())
}

func TestAction_EmptyConfirmationFallsBack(t *testing.T) {
	gw := proposing()
	gw.execFn = func(model.Action, string) (string, error) { return "", nil }
	c := newTestController(t, gw)
	submit(t, c, "신청")

	Run(c, c.Execute("reply-1", *calendarAction("x")))

	msgs := c.Messages()
	assert.Equal(t, ActionSuccessFallback, msgs[len(msgs)-1].Content)
}

func TestAction_ConcurrentOnDistinctMessages(t *testing.T) {
	gw := proposing()
	c := newTestController(t, gw)
	submit(t, c, "하나")
	submit(t, c, "둘")

	first := results(c.Execute("reply-1", *calendarAction("하나")))
	second := results(c.Execute("reply-2", *calendarAction("둘")))

	assert.True(t, c.ActionInFlight("reply-1"))
	assert.True(t, c.ActionInFlight("reply-2"))

	deliver(c, second)
	assert.True(t, c.ActionInFlight("reply-1"))
	assert.False(t, c.ActionInFlight("reply-2"))

	deliver(c, first)
	assert.False(t, c.ActionInFlight("reply-1"))
	assert.Equal(t, 2, gw.execs)
}

func TestAction_DuplicateIgnoredWhileInFlight(t *testing.T) {
	gw := proposing()
	c := newTestController(t, gw)
	submit(t, c, "하나")

	pending := results(c.Execute("reply-1", *calendarAction("하나")))
	assert.Nil(t, c.Execute("reply-1", *calendarAction("하나")))
	assert.False(t, c.RequestAction("reply-1"), "in-flight action cannot be confirmed again")

	deliver(c, pending)
	assert.Equal(t, 1, gw.execs)
	assert.True(t, c.RequestAction("reply-1"), "available again after completion")
}

func TestAction_ClearedExactlyOnce(t *testing.T) {
	for _, fail := range []bool{false, true} {
		gw := proposing()
		if fail {
			gw.execFn = func(model.Action, string) (string, error) { return "", errors.New("x") }
		}
		c := newTestController(t, gw)
		submit(t, c, "하나")

		pending := results(c.Execute("reply-1", *calendarAction("하나")))
		require.Equal(t, 1, c.s.actions.Len())
		deliver(c, pending)
		assert.Zero(t, c.s.actions.Len())

		// A duplicate completion finds nothing to clear
		assert.False(t, c.s.actions.finish("reply-1"))
	}
}

func TestAction_StaleResultClearsMarkOnly(t *testing.T) {
	gw := proposing()
	c := newTestController(t, gw)
	submit(t, c, "하나")

	pending := results(c.Execute("reply-1", *calendarAction("하나")))
	c.StartNew()
	deliver(c, pending)

	assert.Len(t, c.Messages(), 1)
	assert.False(t, c.ActionInFlight("reply-1"))
}

func TestAction_RequestRequiresProposal(t *testing.T) {
	c := newTestController(t, newFakeGateway())
	submit(t, c, "질문")

	msgs := c.Messages()
	assert.False(t, c.RequestAction(msgs[2].ID), "plain replies have no action")
	assert.False(t, c.RequestAction("nope"))
	assert.Nil(t, c.ConfirmAction())
}

func TestAction_Cancel(t *testing.T) {
	gw := proposing()
	c := newTestController(t, gw)
	submit(t, c, "하나")

	require.True(t, c.RequestAction("reply-1"))
	c.CancelAction()

	assert.Empty(t, c.PendingAction())
	assert.Nil(t, c.ConfirmAction())
	assert.Zero(t, gw.execs)
}

func TestAction_MissingToken(t *testing.T) {
	gw := newFakeGateway()
	c := New(Options{Gateway: gw})

	Run(c, c.Execute("m", *calendarAction("x")))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "작업 실행 중 오류가 발생했습니다: 로그인이 필요합니다.", msgs[1].Content)
	assert.Zero(t, gw.execs)
	assert.False(t, c.ActionInFlight("m"))
}
