// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/jeranaias/babypolicy-chat/internal/model"

// MessageLog holds the ordered turns of the displayed conversation. Entries
// are never reordered or edited; the log only grows until it is reset or
// replaced wholesale.
type MessageLog struct {
	messages []model.Message
	revision uint64
}

// NewMessageLog creates an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// Reset replaces the log with a single seed message.
func (l *MessageLog) Reset(seed model.Message) {
	l.messages = []model.Message{seed}
	l.revision++
}

// Append adds msg to the end of the log.
func (l *MessageLog) Append(msg model.Message) {
	l.messages = append(l.messages, msg)
	l.revision++
}

// ReplaceAll installs a persisted history in the order given.
func (l *MessageLog) ReplaceAll(msgs []model.Message) {
	l.messages = append(make([]model.Message, 0, len(msgs)), msgs...)
	l.revision++
}

// Messages returns a copy of the log.
func (l *MessageLog) Messages() []model.Message {
	return append([]model.Message(nil), l.messages...)
}

// Len returns the number of messages.
func (l *MessageLog) Len() int {
	return len(l.messages)
}

// Last returns the newest message.
func (l *MessageLog) Last() (model.Message, bool) {
	if len(l.messages) == 0 {
		return model.Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// Find returns the message with the given id.
func (l *MessageLog) Find(id string) (model.Message, bool) {
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].ID == id {
			return l.messages[i], true
		}
	}
	return model.Message{}, false
}

// Revision increases on every mutation. The presentation layer scrolls to
// the latest message when it changes.
func (l *MessageLog) Revision() uint64 {
	return l.revision
}
