// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"sort"
	"time"
)

// DefaultTitle is shown for conversations the store did not title.
const DefaultTitle = "새 대화"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the summary of a persisted conversation. The full message
// history lives in the remote store and is only fetched when selected.
type Conversation struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// DisplayTitle returns the title, or a placeholder when the title is empty.
func (c Conversation) DisplayTitle() string {
	if c.Title == "" {
		return DefaultTitle
	}
	return c.Title
}

// ActivityAt returns the time used for newest-first ordering. Conversations
// without a last message time fall back to their creation time.
func (c Conversation) ActivityAt() time.Time {
	if c.LastMessageAt.IsZero() {
		return c.CreatedAt
	}
	return c.LastMessageAt
}

// SortNewestFirst orders conversations by ActivityAt, newest first. Ties are
// broken by ID so the order is stable across refreshes.
func SortNewestFirst(convs []Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		ai, aj := convs[i].ActivityAt(), convs[j].ActivityAt()
		if ai.Equal(aj) {
			return convs[i].ID < convs[j].ID
		}
		return ai.After(aj)
	})
}

// TitleFromMessage derives a conversation title from its first message,
// keeping at most 50 runes.
func TitleFromMessage(content string) string {
	runes := []rune(content)
	if len(runes) > 50 {
		runes = runes[:50]
	}
	title := string(runes)
	if title == "" {
		return DefaultTitle
	}
	return title
}
