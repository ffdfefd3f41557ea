// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/babypolicy-chat/internal/auth"
	"github.com/jeranaias/babypolicy-chat/internal/gateway"
	"github.com/jeranaias/babypolicy-chat/internal/model"
)

// =============================================================================
// NEW SESSION
// =============================================================================

func TestNew_SeedOnly(t *testing.T) {
	c := newTestController(t, newFakeGateway())

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleAssistant, msgs[0].Role)
	assert.Equal(t, WelcomeText, msgs[0].Content)
	assert.Empty(t, c.ActiveConversationID())
	assert.False(t, c.Sending())
}

func TestNew_CustomWelcome(t *testing.T) {
	c := New(Options{Gateway: newFakeGateway(), Tokens: auth.Static("tok"), WelcomeText: "반가워요"})
	assert.Equal(t, "반가워요", c.Messages()[0].Content)
}

func TestInit_LoadsDirectory(t *testing.T) {
	gw := newFakeGateway()
	now := time.Now()
	gw.convs = []model.Conversation{conv("old", "예전", now.Add(-time.Hour)), conv("new", "최근", now)}
	c := newTestController(t, gw)

	Run(c, c.Init())

	convs := c.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, "new", convs[0].ID, "newest first")
	assert.True(t, c.Directory().Loaded())
	assert.False(t, c.Directory().Refreshing())
}

// =============================================================================
// SENDING
// =============================================================================

func TestSubmit_FirstMessageAdoptsConversation(t *testing.T) {
	gw := newFakeGateway()
	gw.sendFn = func(text, id string) (*model.Reply, error) {
		assert.Empty(t, id)
		return &model.Reply{Answer: "임신 중에는 임신·출산 진료비를 지원받을 수 있어요.", ConversationID: "c1"}, nil
	}
	gw.convs = []model.Conversation{conv("c1", "임신 중 지원금", time.Now())}
	c := newTestController(t, gw)

	submit(t, c, "임신 중 지원금")

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, WelcomeText, msgs[0].Content)
	assert.Equal(t, model.RoleUser, msgs[1].Role)
	assert.Equal(t, "임신 중 지원금", msgs[1].Content)
	assert.Equal(t, model.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "임신 중에는 임신·출산 진료비를 지원받을 수 있어요.", msgs[2].Content)
	assert.Equal(t, "c1", c.ActiveConversationID())
	assert.False(t, c.Sending())

	assert.Equal(t, 1, gw.lists, "a successful send refreshes the directory")
	assert.Equal(t, 1, c.Directory().Len())
	assert.Equal(t, "tok", gw.lastToken)
}

func TestSubmit_AppendsUserBeforeNetwork(t *testing.T) {
	gw := newFakeGateway()
	c := newTestController(t, gw)

	cmd, ok := c.Submit("  안녕하세요  ")
	require.True(t, ok)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "안녕하세요", msgs[1].Content, "input is trimmed")
	assert.True(t, c.Sending())
	assert.Zero(t, gw.sends, "no call until the command runs")

	Run(c, cmd)
	assert.Equal(t, 1, gw.sends)
	assert.False(t, c.Sending())
}

func TestSubmit_RejectsBlank(t *testing.T) {
	c := newTestController(t, newFakeGateway())

	for _, in := range []string{"", "   ", "\n\t"} {
		cmd, ok := c.Submit(in)
		assert.False(t, ok)
		assert.Nil(t, cmd)
	}
	assert.Len(t, c.Messages(), 1)
}

func TestSubmit_NormalizesHangul(t *testing.T) {
	gw := newFakeGateway()
	c := newTestController(t, gw)

	// Decomposed jamo for 가
	submit(t, c, "\u1100\u1161")

	assert.Equal(t, "가", c.Messages()[1].Content)
	assert.Equal(t, []string{"가"}, gw.sentTexts)
}

func TestSubmit_DropsWhileSending(t *testing.T) {
	gw := newFakeGateway()
	c := newTestController(t, gw)

	first, ok := c.Submit("첫 질문")
	require.True(t, ok)

	second, ok := c.Submit("두 번째 질문")
	assert.False(t, ok)
	assert.Nil(t, second)
	assert.Len(t, c.Messages(), 2, "no second user message while sending")

	Run(c, first)
	assert.Equal(t, 1, gw.sends)
	assert.Len(t, c.Messages(), 3)

	// Accepted again once the first completed
	_, ok = c.Submit("두 번째 질문")
	assert.True(t, ok)
}

func TestSubmit_OrderingAcrossSends(t *testing.T) {
	c := newTestController(t, newFakeGateway())

	questions := []string{"부모급여", "아동수당", "첫만남이용권", "산후조리"}
	for _, q := range questions {
		submit(t, c, q)
	}

	msgs := c.Messages()
	require.Len(t, msgs, 1+2*len(questions))
	for i, q := range questions {
		user, reply := msgs[1+2*i], msgs[2+2*i]
		assert.Equal(t, model.RoleUser, user.Role)
		assert.Equal(t, q, user.Content)
		assert.Equal(t, model.RoleAssistant, reply.Role)
		assert.Equal(t, "답변: "+q, reply.Content)
	}
}

func TestSubmit_KeepsActiveID(t *testing.T) {
	gw := newFakeGateway()
	calls := 0
	gw.sendFn = func(text, id string) (*model.Reply, error) {
		calls++
		if calls == 1 {
			return &model.Reply{Answer: "a", ConversationID: "c1"}, nil
		}
		assert.Equal(t, "c1", id, "later sends carry the active id")
		return &model.Reply{Answer: "b", ConversationID: "other"}, nil
	}
	c := newTestController(t, gw)

	submit(t, c, "하나")
	submit(t, c, "둘")

	assert.Equal(t, "c1", c.ActiveConversationID(), "active id is never reassigned")
}

func TestSubmit_ReplyCarriesSourcesAndAction(t *testing.T) {
	gw := newFakeGateway()
	gw.sendFn = func(text, id string) (*model.Reply, error) {
		return &model.Reply{
			Answer:         "신청 마감일을 캘린더에 추가할까요?",
			ConversationID: "c1",
			MessageID:      "srv-7",
			Sources:        []model.Source{{DocID: "a"}, {DocID: "b"}, {DocID: "c"}},
			Action:         &model.Action{Name: model.ActionCreateCalendarEvent, Arguments: map[string]any{"title": "마감"}},
		}, nil
	}
	c := newTestController(t, gw)

	submit(t, c, "언제까지 신청해?")

	last := c.Messages()[2]
	assert.Equal(t, "srv-7", last.ID)
	assert.Len(t, last.Sources, 3)
	assert.Len(t, last.TopSources(2), 2)
	assert.True(t, last.HasAction())
}

func TestSubmit_Failure(t *testing.T) {
	gw := newFakeGateway()
	gw.sendFn = func(text, id string) (*model.Reply, error) {
		return nil, &gateway.ClientError{Type: gateway.ErrTypeRemote, Status: 500, Message: "Internal Server Error"}
	}
	c := newTestController(t, gw)

	submit(t, c, "질문")

	msgs := c.Messages()
	require.Len(t, msgs, 3, "the user message is not rolled back")
	assert.Equal(t, "질문", msgs[1].Content)
	assert.Equal(t, "죄송합니다. 오류가 발생했습니다: Internal Server Error", msgs[2].Content)
	assert.Equal(t, model.RoleAssistant, msgs[2].Role)
	assert.False(t, c.Sending())
	assert.Empty(t, c.ActiveConversationID())
	assert.Zero(t, gw.lists, "no refresh after a failed send")
}

func TestSubmit_FailureWithoutDescription(t *testing.T) {
	gw := newFakeGateway()
	gw.sendFn = func(text, id string) (*model.Reply, error) {
		return nil, &gateway.ClientError{Type: gateway.ErrTypeUnknown}
	}
	c := newTestController(t, gw)

	submit(t, c, "질문")
	assert.Contains(t, c.Messages()[2].Content, "알 수 없는 오류")
}

func TestSubmit_MissingToken(t *testing.T) {
	gw := newFakeGateway()
	c := New(Options{Gateway: gw, Tokens: auth.Static("")})

	submit(t, c, "질문")

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "죄송합니다. 오류가 발생했습니다: 로그인이 필요합니다.", msgs[2].Content)
	assert.Zero(t, gw.sends, "no network call without a token")
	assert.False(t, c.Sending())
}

func TestSubmit_NilTokenSource(t *testing.T) {
	gw := newFakeGateway()
	c := New(Options{Gateway: gw})

	submit(t, c, "질문")
	assert.Contains(t, c.Messages()[2].Content, "로그인이 필요합니다.")
	assert.Zero(t, gw.sends)
}

// failingTokens reports a fixed error from Token.
type failingTokens struct{ err error }

func (f failingTokens) Token() (string, error) { return "", f.err }

func TestSubmit_TokenReadFailure(t *testing.T) {
	gw := newFakeGateway()
	cause := fmt.Errorf("failed to read token: %w", errors.New("permission denied"))
	c := New(Options{Gateway: gw, Tokens: failingTokens{err: cause}})

	submit(t, c, "질문")

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "죄송합니다. 오류가 발생했습니다: 로그인 정보를 읽을 수 없습니다: failed to read token: permission denied", msgs[2].Content)
	assert.NotContains(t, msgs[2].Content, "로그인이 필요합니다.")
	assert.Zero(t, gw.sends)
	assert.False(t, c.Sending())
}

func TestSubmit_TimeoutIsDescribedInKorean(t *testing.T) {
	gw := newFakeGateway()
	gw.sendFn = func(text, conversationID string) (*model.Reply, error) {
		return nil, gateway.ErrTimeout
	}
	c := newTestController(t, gw)

	submit(t, c, "질문")
	assert.Equal(t, "죄송합니다. 오류가 발생했습니다: 요청 시간이 초과되었습니다", c.Messages()[2].Content)
}

func TestSubmit_EmitsScroll(t *testing.T) {
	c := newTestController(t, newFakeGateway())

	cmd, _ := c.Submit("질문")
	passed := Run(c, cmd)

	assert.Contains(t, passed, ScrollToLatestMsg{})
}

// =============================================================================
// NAVIGATION RACES
// =============================================================================

func TestSend_StaleAfterStartNew(t *testing.T) {
	gw := newFakeGateway()
	c := newTestController(t, gw)

	cmd, _ := c.Submit("질문")
	pending := results(cmd)

	c.StartNew()
	deliver(c, pending)

	assert.Len(t, c.Messages(), 1, "late reply does not reach the new conversation")
	assert.Empty(t, c.ActiveConversationID(), "late reply does not adopt an id")
	assert.False(t, c.Sending(), "guard is released")
	assert.Equal(t, 1, gw.lists, "the backend still changed, so the directory refreshes")
}

func TestSend_StaleAfterSelect(t *testing.T) {
	gw := newFakeGateway()
	gw.histories["c2"] = []model.Message{{ID: "m1", Role: model.RoleUser, Content: "A"}}
	c := newTestController(t, gw)

	cmd, _ := c.Submit("질문")
	pending := results(cmd)

	Run(c, c.Select("c2"))
	deliver(c, pending)

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "A", msgs[0].Content)
	assert.Equal(t, "c2", c.ActiveConversationID())
}

func TestSend_StaleFailureDiscarded(t *testing.T) {
	gw := newFakeGateway()
	gw.sendFn = func(text, id string) (*model.Reply, error) { return nil, errors.New("boom") }
	c := newTestController(t, gw)

	cmd, _ := c.Submit("질문")
	pending := results(cmd)
	c.StartNew()
	deliver(c, pending)

	assert.Len(t, c.Messages(), 1)
	assert.False(t, c.Sending())
}

func TestViewKey_Matches(t *testing.T) {
	tests := []struct {
		name string
		key  ViewKey
		cur  ViewKey
		want bool
	}{
		{"same", ViewKey{"c1", 3}, ViewKey{"c1", 3}, true},
		{"id adopted", ViewKey{"", 3}, ViewKey{"c1", 3}, true},
		{"other generation", ViewKey{"c1", 3}, ViewKey{"c1", 4}, false},
		{"other conversation", ViewKey{"c1", 3}, ViewKey{"c2", 3}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.key.Matches(tc.cur))
		})
	}
}

// =============================================================================
// SIDEBAR AND NOTICES
// =============================================================================

func TestToggleSidebar_RefreshesOnOpen(t *testing.T) {
	gw := newFakeGateway()
	c := newTestController(t, gw)

	Run(c, c.ToggleSidebar())
	assert.True(t, c.SidebarOpen())
	assert.Equal(t, 1, gw.lists)

	assert.Nil(t, c.ToggleSidebar())
	assert.False(t, c.SidebarOpen())
	assert.Equal(t, 1, gw.lists)
}

func TestNotice_Text(t *testing.T) {
	err := &gateway.ClientError{Type: gateway.ErrTypeConnection, Message: "서버에 연결할 수 없습니다"}
	tests := []struct {
		op   Operation
		want string
	}{
		{OpRefresh, "대화 목록을 불러오지 못했습니다: 서버에 연결할 수 없습니다"},
		{OpSelect, "대화를 불러오지 못했습니다: 서버에 연결할 수 없습니다"},
		{OpDelete, "대화를 삭제하지 못했습니다: 서버에 연결할 수 없습니다"},
	}
	for _, tc := range tests {
		t.Run(string(tc.op), func(t *testing.T) {
			assert.Equal(t, tc.want, Notice{Op: tc.op, Err: err}.Text())
		})
	}
}

func TestUpdate_IgnoresForeignMessages(t *testing.T) {
	c := newTestController(t, newFakeGateway())
	assert.Nil(t, c.Update(ScrollToLatestMsg{}))
	assert.Nil(t, c.Update(fmt.Errorf("not a result")))
	assert.Len(t, c.Messages(), 1)
}
