// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the conversation session manager.
//
// The Controller holds the state of one chat screen: the displayed message
// log, the active conversation, the conversation directory, the pending
// send, and the delete and action confirmation sub-flows. It follows the
// Bubble Tea model. Operations return a tea.Cmd that performs the network
// call, and the command's result message is handed back to Update on the
// same goroutine that issued it. No locks are involved.
//
// # Key Types
//
//   - Controller: state machine and the only mutator of session state
//   - MessageLog: ordered turns of the displayed conversation
//   - Directory: conversation summaries, refreshed from the backend
//   - ActionTracker: messages whose proposed action is executing
//   - ViewKey: tags async calls so late completions for a view the user
//     already left are discarded
//
// # Failures
//
// Send and action failures become assistant messages in the log. Refresh,
// select and delete failures never touch the log; they are logged and
// recorded as a Notice.
//
// # Usage
//
//	ctrl := session.New(session.Options{Gateway: client, Tokens: tokens})
//	session.Run(ctrl, ctrl.Init())
//	cmd, ok := ctrl.Submit("임신 중 지원금")
//	session.Run(ctrl, cmd)
package session
