// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// REFRESH
// =============================================================================

// Refresh fetches the conversation summaries. On failure the previous set is
// kept and a notice is recorded.
func (c *Controller) Refresh() tea.Cmd {
	seq := c.s.directory.beginRefresh()

	token, err := c.token()
	if err != nil {
		return resultCmd(ConversationsMsg{Seq: seq, Err: err})
	}

	gw, ctx := c.gateway, c.ctx
	return func() tea.Msg {
		convs, err := gw.ListConversations(ctx, token)
		return ConversationsMsg{Seq: seq, Conversations: convs, Err: err}
	}
}

func (c *Controller) handleConversations(msg ConversationsMsg) {
	if !c.s.directory.completeRefresh(msg.Seq) {
		c.logger.Debug("discarding out-of-order refresh", "seq", msg.Seq)
		return
	}
	if msg.Err != nil {
		c.logger.Warn("conversation refresh failed", "error", msg.Err)
		c.report(OpRefresh, "", msg.Err)
		return
	}
	c.s.directory.Replace(msg.Conversations)
	c.clearNotice(OpRefresh)
}

// =============================================================================
// SELECT / NEW
// =============================================================================

// Select loads the history of conversation id and makes it active. Only the
// most recent request is applied; StartNew cancels an outstanding one.
func (c *Controller) Select(id string) tea.Cmd {
	if id == "" {
		return nil
	}
	c.s.selectSeq++
	seq := c.s.selectSeq
	c.s.selecting = id

	token, err := c.token()
	if err != nil {
		return resultCmd(ConversationLoadedMsg{Seq: seq, ConversationID: id, Err: err})
	}

	gw, ctx := c.gateway, c.ctx
	return func() tea.Msg {
		msgs, err := gw.GetConversationMessages(ctx, token, id)
		return ConversationLoadedMsg{Seq: seq, ConversationID: id, Messages: msgs, Err: err}
	}
}

func (c *Controller) handleLoaded(msg ConversationLoadedMsg) {
	if msg.Seq != c.s.selectSeq {
		c.logger.Debug("discarding superseded conversation load", "conversation_id", msg.ConversationID)
		return
	}
	c.s.selecting = ""

	if msg.Err != nil {
		c.logger.Warn("conversation load failed", "conversation_id", msg.ConversationID, "error", msg.Err)
		c.report(OpSelect, msg.ConversationID, msg.Err)
		return
	}

	c.s.generation++
	c.s.log.ReplaceAll(msg.Messages)
	c.s.activeID = msg.ConversationID
	c.s.sidebarOpen = false
	c.s.pendingAction = ""
	c.clearNotice(OpSelect)
	c.logger.Info("conversation selected", "conversation_id", msg.ConversationID, "messages", len(msg.Messages))
}

// StartNew clears the active conversation and shows only the welcome turn.
// Nothing is sent to the backend until the first message.
func (c *Controller) StartNew() tea.Cmd {
	rev := c.s.log.Revision()
	c.startNew()
	c.s.sidebarOpen = false
	return c.scrollIfChanged(rev, nil)
}

func (c *Controller) startNew() {
	c.s.generation++
	c.s.activeID = ""
	c.s.log.Reset(c.welcome())
	c.s.pendingAction = ""

	// Invalidate any outstanding select
	c.s.selectSeq++
	c.s.selecting = ""
}

// =============================================================================
// DELETE
// =============================================================================

// RequestDelete opens the delete confirmation for id.
func (c *Controller) RequestDelete(id string) {
	if id == "" {
		return
	}
	c.s.pendingDelete = id
}

// CancelDelete closes the delete confirmation.
func (c *Controller) CancelDelete() {
	c.s.pendingDelete = ""
}

// ConfirmDelete deletes the conversation awaiting confirmation. The dialog
// closes immediately whatever the outcome.
func (c *Controller) ConfirmDelete() tea.Cmd {
	id := c.s.pendingDelete
	c.s.pendingDelete = ""
	if id == "" || c.s.directory.Deleting(id) {
		return nil
	}
	c.s.directory.deleting[id] = true

	token, err := c.token()
	if err != nil {
		return resultCmd(DeleteResultMsg{ConversationID: id, Err: err})
	}

	gw, ctx := c.gateway, c.ctx
	return func() tea.Msg {
		return DeleteResultMsg{ConversationID: id, Err: gw.DeleteConversation(ctx, token, id)}
	}
}

func (c *Controller) handleDeleted(msg DeleteResultMsg) tea.Cmd {
	delete(c.s.directory.deleting, msg.ConversationID)

	if msg.Err != nil {
		c.logger.Warn("conversation delete failed", "conversation_id", msg.ConversationID, "error", msg.Err)
		c.report(OpDelete, msg.ConversationID, msg.Err)
		return nil
	}

	c.logger.Info("conversation deleted", "conversation_id", msg.ConversationID)
	c.s.directory.Remove(msg.ConversationID)
	if msg.ConversationID == c.s.activeID {
		c.startNew()
	} else if msg.ConversationID == c.s.selecting {
		c.s.selectSeq++
		c.s.selecting = ""
	}
	c.clearNotice(OpDelete)
	return c.Refresh()
}
