// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver provides a local development backend for the chat
// client.
//
// It implements the same HTTP contract as the production policy assistant
// so the client can be exercised without the retrieval pipeline. Answers
// come from a keyword-matched catalog of childcare policies.
//
// # Endpoints
//
//   - POST   /api/chat                          Answer a message, creating a conversation if needed
//   - POST   /api/chat/function                 Execute create_calendar_event
//   - GET    /api/conversations                 List the caller's conversations
//   - GET    /api/conversations/{id}/messages   Conversation history
//   - DELETE /api/conversations/{id}            Delete a conversation
//   - GET    /api/calendar/events               Events created by actions
//   - GET    /health                            Health check (no auth)
//
// # Middleware
//
//   - Bearer token to user id mapping with constant-time comparison
//   - Per-token rate limiting (golang.org/x/time/rate)
//   - Request logging with request ids
//   - Panic recovery
//
// # Usage
//
//	store, _ := storage.Open(cfg.DatabasePath())
//	srv := devserver.New(devserver.Options{
//	    Addr:   cfg.DevServer.Addr,
//	    Store:  store,
//	    Tokens: cfg.DevServer.Tokens,
//	})
//	err := srv.Run(ctx)
package devserver
