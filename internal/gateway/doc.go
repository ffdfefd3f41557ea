// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for the policy assistant backend.
//
// The client is a thin typed wrapper: it marshals requests, attaches the
// bearer token, and converts wire records into model types. It keeps no
// state between calls.
//
// # Endpoints
//
//   - POST   /chat                          Send a message (creates a conversation when none is given)
//   - POST   /chat/function                 Execute an assistant-proposed action
//   - GET    /conversations                 List conversation summaries
//   - GET    /conversations/{id}/messages   Fetch a conversation's history
//   - DELETE /conversations/{id}            Delete a conversation
//
// # Errors
//
// All failures are *ClientError values categorized by ErrorType. A missing
// token fails locally with ErrMissingCredential. Non-2xx responses carry the
// backend's "detail" text, or "HTTP error! status: N" when there is none.
// Describe returns the text to show the user.
package gateway
