// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("임신 중 지원금")

	if msg.ID == "" {
		t.Error("ID should not be empty")
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	other := NewUserMessage("임신 중 지원금")
	if other.ID == msg.ID {
		t.Error("IDs should be unique")
	}
}

func TestMessageFromReply(t *testing.T) {
	tests := []struct {
		name   string
		reply  Reply
		wantID string
	}{
		{
			name:   "server id kept",
			reply:  Reply{Answer: "답변", MessageID: "srv-1"},
			wantID: "srv-1",
		},
		{
			name:  "id synthesized",
			reply: Reply{Answer: "답변"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := MessageFromReply(&tc.reply)
			if msg.Role != RoleAssistant {
				t.Errorf("Role = %q, want assistant", msg.Role)
			}
			if tc.wantID != "" && msg.ID != tc.wantID {
				t.Errorf("ID = %q, want %q", msg.ID, tc.wantID)
			}
			if msg.ID == "" {
				t.Error("ID should never be empty")
			}
			if msg.Content != tc.reply.Answer {
				t.Errorf("Content = %q, want %q", msg.Content, tc.reply.Answer)
			}
		})
	}
}

func TestMessage_TopSources(t *testing.T) {
	msg := Message{Sources: []Source{{DocID: "a"}, {DocID: "b"}, {DocID: "c"}}}

	top := msg.TopSources(2)
	if len(top) != 2 || top[0].DocID != "a" || top[1].DocID != "b" {
		t.Errorf("TopSources(2) = %+v", top)
	}
	if got := len(msg.TopSources(5)); got != 3 {
		t.Errorf("TopSources(5) len = %d, want 3", got)
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := Message{Content: "서울에 사는\n2자녀 가정이 받을 수 있는 지원금은?"}

	preview := msg.Preview(10)
	if strings.Contains(preview, "\n") {
		t.Error("Preview should be single line")
	}
	if len([]rune(preview)) != 10 {
		t.Errorf("Preview rune length = %d, want 10", len([]rune(preview)))
	}
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("Preview = %q, want ellipsis", preview)
	}
}

// =============================================================================
// ACTION TESTS
// =============================================================================

func TestAction_Label(t *testing.T) {
	tests := []struct {
		name   string
		action *Action
		want   string
	}{
		{"nil", nil, ""},
		{"calendar without title", &Action{Name: ActionCreateCalendarEvent}, "캘린더에 일정 추가"},
		{
			"calendar with date",
			&Action{Name: ActionCreateCalendarEvent, Arguments: map[string]any{"title": "부모급여 신청", "event_date": "2025-03-01"}},
			"캘린더에 추가: 부모급여 신청 (2025-03-01)",
		},
		{"unknown", &Action{Name: "send_email"}, "send_email"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.action.Label(); got != tc.want {
				t.Errorf("Label() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMessage_HasAction(t *testing.T) {
	if (Message{}).HasAction() {
		t.Error("empty message should not have an action")
	}
	if (Message{Action: &Action{}}).HasAction() {
		t.Error("unnamed action should not count")
	}
	if !(Message{Action: &Action{Name: ActionCreateCalendarEvent}}).HasAction() {
		t.Error("named action should count")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	convs := []Conversation{
		{ID: "old", CreatedAt: base, LastMessageAt: base.Add(time.Hour)},
		{ID: "new", CreatedAt: base, LastMessageAt: base.Add(3 * time.Hour)},
		{ID: "never-touched", CreatedAt: base.Add(2 * time.Hour)},
	}

	SortNewestFirst(convs)

	want := []string{"new", "never-touched", "old"}
	for i, id := range want {
		if convs[i].ID != id {
			t.Errorf("convs[%d] = %q, want %q", i, convs[i].ID, id)
		}
	}
}

func TestTitleFromMessage(t *testing.T) {
	long := strings.Repeat("가", 60)
	if got := []rune(TitleFromMessage(long)); len(got) != 50 {
		t.Errorf("title length = %d, want 50", len(got))
	}
	if got := TitleFromMessage(""); got != DefaultTitle {
		t.Errorf("empty title = %q, want %q", got, DefaultTitle)
	}
}
