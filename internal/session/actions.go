// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/babypolicy-chat/internal/model"
)

// =============================================================================
// IN-FLIGHT TRACKING
// =============================================================================

// ActionTracker records which messages are currently executing their
// proposed action. Actions on different messages may run concurrently.
type ActionTracker struct {
	inFlight map[string]struct{}
}

// NewActionTracker creates an empty tracker.
func NewActionTracker() *ActionTracker {
	return &ActionTracker{inFlight: make(map[string]struct{})}
}

// InFlight reports whether messageID is executing.
func (t *ActionTracker) InFlight(messageID string) bool {
	_, ok := t.inFlight[messageID]
	return ok
}

// Len returns the number of executing actions.
func (t *ActionTracker) Len() int {
	return len(t.inFlight)
}

// begin marks messageID as executing. It returns false if it already was.
func (t *ActionTracker) begin(messageID string) bool {
	if t.InFlight(messageID) {
		return false
	}
	t.inFlight[messageID] = struct{}{}
	return true
}

// finish clears the mark. It returns false if there was none.
func (t *ActionTracker) finish(messageID string) bool {
	if !t.InFlight(messageID) {
		return false
	}
	delete(t.inFlight, messageID)
	return true
}

// =============================================================================
// CONFIRMATION FLOW
// =============================================================================

// RequestAction opens the confirmation for the action proposed in
// messageID. It returns false if the message has no runnable action.
func (c *Controller) RequestAction(messageID string) bool {
	msg, ok := c.s.log.Find(messageID)
	if !ok || !msg.HasAction() || c.s.actions.InFlight(messageID) {
		return false
	}
	c.s.pendingAction = messageID
	return true
}

// CancelAction closes the confirmation without running anything.
func (c *Controller) CancelAction() {
	c.s.pendingAction = ""
}

// ConfirmAction runs the action awaiting confirmation.
func (c *Controller) ConfirmAction() tea.Cmd {
	id := c.s.pendingAction
	c.s.pendingAction = ""
	if id == "" {
		return nil
	}
	msg, ok := c.s.log.Find(id)
	if !ok || !msg.HasAction() {
		return nil
	}
	return c.Execute(id, *msg.Action)
}

// =============================================================================
// EXECUTION
// =============================================================================

// Execute runs action on behalf of messageID. The outcome is appended to the
// log as an assistant message. While the call is outstanding messageID is in
// flight and a second Execute for it is ignored.
func (c *Controller) Execute(messageID string, action model.Action) tea.Cmd {
	if action.Name == "" || !c.s.actions.begin(messageID) {
		return nil
	}

	view := c.s.view()
	c.logger.Info("executing action", "message_id", messageID, "action", action.Name, "conversation_id", view.ConversationID)

	token, err := c.token()
	if err != nil {
		return resultCmd(ActionResultMsg{View: view, MessageID: messageID, Name: action.Name, Err: err})
	}

	action.Arguments = copyArgs(action.Arguments)
	gw, ctx := c.gateway, c.ctx
	return func() tea.Msg {
		text, err := gw.ExecuteAction(ctx, token, action, view.ConversationID)
		return ActionResultMsg{View: view, MessageID: messageID, Name: action.Name, Text: text, Err: err}
	}
}

func (c *Controller) handleActionResult(msg ActionResultMsg) {
	if !c.s.actions.finish(msg.MessageID) {
		c.logger.Warn("action result without in-flight mark", "message_id", msg.MessageID)
	}

	if msg.Err != nil {
		c.logger.Warn("action failed", "message_id", msg.MessageID, "action", msg.Name, "error", msg.Err)
	}
	if !msg.View.Matches(c.s.view()) {
		c.logger.Debug("discarding stale action result", "message_id", msg.MessageID)
		return
	}

	if msg.Err != nil {
		c.s.log.Append(model.NewAssistantMessage(ActionErrorText(msg.Err)))
		return
	}
	text := msg.Text
	if text == "" {
		text = ActionSuccessFallback
	}
	c.s.log.Append(model.NewAssistantMessage(text))
}

func copyArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}
