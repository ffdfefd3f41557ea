// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/babypolicy-chat/internal/gateway"
	"github.com/jeranaias/babypolicy-chat/internal/logging"
	"github.com/jeranaias/babypolicy-chat/internal/model"
	"github.com/jeranaias/babypolicy-chat/internal/storage"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = "127.0.0.1:8000"

	// MaxRequestBodySize bounds request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxMessageLength bounds one user message, in runes.
	MaxMessageLength = 4000
)

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	Addr      string
	Store     *storage.Store
	Assistant *Assistant

	// Tokens maps bearer tokens to user ids
	Tokens map[string]string

	// RatePerMinute limits requests per token (0 = unlimited)
	RatePerMinute int

	Logger *slog.Logger
}

// Server implements the chat backend API on top of a Store.
type Server struct {
	addr      string
	store     *storage.Store
	assistant *Assistant
	tokens    map[string]string
	limiter   *RateLimiter
	logger    *slog.Logger

	handler http.Handler
	server  *http.Server
}

// New creates a Server. Store is required.
func New(opts Options) *Server {
	s := &Server{
		addr:      opts.Addr,
		store:     opts.Store,
		assistant: opts.Assistant,
		tokens:    opts.Tokens,
		limiter:   NewRateLimiter(opts.RatePerMinute),
		logger:    opts.Logger,
	}
	if s.addr == "" {
		s.addr = DefaultAddr
	}
	if s.assistant == nil {
		s.assistant = NewAssistant(nil)
	}
	if s.logger == nil {
		s.logger = logging.Logger()
	}
	s.handler = s.routes()
	return s
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("devserver started", "addr", ln.Addr().String())
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("devserver shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/chat", s.handleChat)
	api.HandleFunc("POST /api/chat/function", s.handleFunction)
	api.HandleFunc("GET /api/conversations", s.handleListConversations)
	api.HandleFunc("GET /api/conversations/{id}/messages", s.handleMessages)
	api.HandleFunc("DELETE /api/conversations/{id}", s.handleDeleteConversation)
	api.HandleFunc("GET /api/calendar/events", s.handleEvents)

	root := http.NewServeMux()
	root.HandleFunc("GET /health", s.handleHealth)
	root.Handle("/api/", AuthMiddleware(s.tokens, s.logger)(api))

	return Chain(
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(s.limiter, s.logger),
	)(root)
}

// ============================================================================
// CHAT HANDLERS
// ============================================================================

// handleChat handles POST /api/chat. A missing conversation_id creates a new
// conversation titled by the start of the message.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := UserFromContext(ctx)

	var req gateway.ChatRequest
	if !s.decode(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		writeDetail(w, http.StatusBadRequest, "Message is required")
		return
	}
	if len([]rune(text)) > MaxMessageLength {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Message exceeds maximum length of %d", MaxMessageLength))
		return
	}

	var conv storage.Conversation
	var err error
	if req.ConversationID == nil || *req.ConversationID == "" {
		conv, err = s.store.CreateConversation(ctx, user, model.TitleFromMessage(text))
	} else {
		conv, err = s.store.GetConversation(ctx, user, *req.ConversationID)
	}
	if err != nil {
		s.storeError(w, r, err, "Conversation not found")
		return
	}

	if _, err := s.store.AddMessage(ctx, storage.Message{
		ConversationID: conv.ID, Role: model.RoleUser, Content: text,
	}); err != nil {
		s.storeError(w, r, err, "")
		return
	}

	answer := s.assistant.Answer(text)
	saved, err := s.store.AddMessage(ctx, storage.Message{
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        answer.Text,
		Sources:        answer.Sources,
		Action:         answer.Action,
	})
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}

	logging.FromContext(ctx).Debug("answered",
		"conversation_id", conv.ID, "sources", len(answer.Sources), "proposal", answer.Action != nil)

	writeJSON(w, http.StatusOK, gateway.ChatResponse{
		Answer:         answer.Text,
		ConversationID: conv.ID,
		MessageID:      saved.ID,
		Sources:        answer.Sources,
		FunctionCall:   functionCall(answer.Action),
	})
}

// handleFunction handles POST /api/chat/function.
func (s *Server) handleFunction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := UserFromContext(ctx)

	var req gateway.FunctionRequest
	if !s.decode(w, r, &req) {
		return
	}

	var message string
	switch req.Name {
	case model.ActionCreateCalendarEvent:
		ev, err := calendarEvent(user, req.Arguments)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		if ev, err = s.store.CreateEvent(ctx, ev); err != nil {
			s.storeError(w, r, err, "")
			return
		}
		message = fmt.Sprintf("'%s' 일정을 %s 캘린더에 추가했어요.", ev.Title, ev.EventDate)
	default:
		writeDetail(w, http.StatusBadRequest, "Unknown function: "+req.Name)
		return
	}

	// Record the outcome in the conversation so history matches the screen
	if req.ConversationID != nil && *req.ConversationID != "" {
		if _, err := s.store.GetConversation(ctx, user, *req.ConversationID); err == nil {
			if _, err := s.store.AddMessage(ctx, storage.Message{
				ConversationID: *req.ConversationID, Role: model.RoleAssistant, Content: message,
			}); err != nil {
				logging.FromContext(ctx).Warn("failed to record action result", "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, gateway.FunctionResponse{Message: message})
}

// calendarEvent validates create_calendar_event arguments. The date may be
// given as event_date or date, in YYYY-MM-DD or RFC 3339 form.
func calendarEvent(user string, args map[string]any) (storage.CalendarEvent, error) {
	str := func(k string) string {
		v, _ := args[k].(string)
		return strings.TrimSpace(v)
	}

	title := str("title")
	if title == "" {
		return storage.CalendarEvent{}, errors.New("title is required")
	}

	raw := str("event_date")
	if raw == "" {
		raw = str("date")
	}
	date, ok := parseEventDate(raw)
	if !ok {
		return storage.CalendarEvent{}, errors.New("event_date must be YYYY-MM-DD")
	}

	return storage.CalendarEvent{
		UserID:      user,
		Title:       title,
		Description: str("description"),
		EventDate:   date.Format("2006-01-02"),
	}, nil
}

// eventDateLayouts are tried in order. Timestamps keep the calendar day
// written in their own offset.
var eventDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseEventDate(raw string) (time.Time, bool) {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ============================================================================
// CONVERSATION HANDLERS
// ============================================================================

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.store.ListConversations(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}

	records := make([]gateway.ConversationRecord, 0, len(convs))
	for _, c := range convs {
		records = append(records, gateway.ConversationRecord{
			ID:            c.ID,
			Title:         c.Title,
			CreatedAt:     c.CreatedAt,
			LastMessageAt: c.LastMessageAt,
		})
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := s.store.GetConversation(ctx, UserFromContext(ctx), id); err != nil {
		s.storeError(w, r, err, "Conversation not found")
		return
	}
	msgs, err := s.store.Messages(ctx, id)
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}

	records := make([]gateway.MessageRecord, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, gateway.MessageRecord{
			ID:           m.ID,
			Role:         string(m.Role),
			Content:      m.Content,
			RagSources:   m.Sources,
			FunctionCall: functionCall(m.Action),
			CreatedAt:    m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := s.store.DeleteConversation(ctx, UserFromContext(ctx), id); err != nil {
		s.storeError(w, r, err, "Conversation not found")
		return
	}
	logging.FromContext(ctx).Info("conversation deleted", "conversation_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted successfully"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.Events(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ============================================================================
// HELPERS
// ============================================================================

// decode reads a JSON body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return false
		}
		logging.FromContext(r.Context()).Debug("invalid request body", "error", err)
		writeDetail(w, http.StatusBadRequest, "Invalid request format")
		return false
	}
	return true
}

// storeError maps a store failure to a response. notFound is the detail for
// ErrNotFound; internal errors are logged and reported generically.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, storage.ErrNotFound) && notFound != "" {
		writeDetail(w, http.StatusNotFound, notFound)
		return
	}
	logging.FromContext(r.Context()).Error("store failure", "path", r.URL.Path, "error", err)
	writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
}

func functionCall(a *model.Action) *gateway.FunctionCall {
	if a == nil {
		return nil
	}
	return &gateway.FunctionCall{Name: a.Name, Arguments: a.Arguments}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes an error body in the backend's {"detail": ...} shape.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
