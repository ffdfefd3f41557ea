// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides SQLite persistence for the development backend.
//
// Conversations are scoped to a user id. Every appended message touches its
// conversation's last_message_at, so listings order by recent activity.
// Deleting a conversation cascades to its messages.
//
// # Key Types
//
//   - Store: the database handle
//   - Conversation, Message, CalendarEvent: stored records
//
// # Usage
//
//	store, err := storage.Open(cfg.DatabasePath())
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	conv, _ := store.CreateConversation(ctx, "dev-user", "임신 중 지원금")
//	store.AddMessage(ctx, storage.Message{ConversationID: conv.ID, Role: model.RoleUser, Content: "임신 중 지원금"})
package storage
