// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the domain types shared by the gateway client, the
// session controller and the presentation layer.
//
// # Key Types
//
//   - Message: Single turn with role, content and optional sources/action
//   - Conversation: Summary of a persisted conversation
//   - Source: Policy document fragment cited by the assistant
//   - Action: Side effect proposed by the assistant (e.g. a calendar event)
//   - Reply: The gateway's answer to a sent message
//
// # Usage
//
//	msg := model.NewUserMessage("임신 중 지원금")
//	reply := model.MessageFromReply(&model.Reply{Answer: "..."})
//	model.SortNewestFirst(conversations)
package model
