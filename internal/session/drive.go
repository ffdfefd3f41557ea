// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import tea "github.com/charmbracelet/bubbletea"

// Collect runs cmd and returns the messages it produces, flattening
// batches. Nil commands and nil messages are skipped.
func Collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, sub := range batch {
			out = append(out, Collect(sub)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// Run drives the controller without a Bubble Tea program: it executes cmd,
// feeds every result back through Update and repeats until no work is left.
// Results are applied in issue order. Messages the controller does not own,
// such as ScrollToLatestMsg, are returned to the caller.
func Run(c *Controller, cmd tea.Cmd) []tea.Msg {
	var passed []tea.Msg
	queue := Collect(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		if !owns(msg) {
			passed = append(passed, msg)
			continue
		}
		queue = append(queue, Collect(c.Update(msg))...)
	}
	return passed
}

func owns(msg tea.Msg) bool {
	switch msg.(type) {
	case SendResultMsg, ConversationsMsg, ConversationLoadedMsg, DeleteResultMsg, ActionResultMsg:
		return true
	}
	return false
}
