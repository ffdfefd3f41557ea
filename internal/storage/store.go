// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/babypolicy-chat/internal/model"
)

// ErrNotFound is returned when a row does not exist or belongs to another
// user.
var ErrNotFound = errors.New("not found")

// =============================================================================
// RECORD TYPES
// =============================================================================

// Conversation is a stored conversation header.
type Conversation struct {
	ID            string
	UserID        string
	Title         string
	CreatedAt     time.Time
	LastMessageAt *time.Time
}

// Message is a stored conversation turn.
type Message struct {
	ID             string
	ConversationID string
	Role           model.Role
	Content        string
	Sources        []model.Source
	Action         *model.Action
	CreatedAt      time.Time
}

// CalendarEvent is an event created by the calendar action.
type CalendarEvent struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EventDate   string    `json:"event_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// =============================================================================
// STORE
// =============================================================================

// Store persists conversations, messages and calendar events in SQLite.
// It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// CreateConversation inserts a new conversation for userID.
func (s *Store) CreateConversation(ctx context.Context, userID, title string) (Conversation, error) {
	conv := Conversation{
		ID:        model.NewID(),
		UserID:    userID,
		Title:     title,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, title, created_at) VALUES (?, ?, ?, ?)`,
		conv.ID, conv.UserID, conv.Title, conv.CreatedAt.UnixMicro())
	if err != nil {
		return Conversation{}, fmt.Errorf("creating conversation: %w", err)
	}
	return conv, nil
}

// GetConversation returns userID's conversation id.
func (s *Store) GetConversation(ctx context.Context, userID, id string) (Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at, last_message_at FROM conversations WHERE id = ? AND user_id = ?`,
		id, userID)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("querying conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns userID's conversations, most recently active
// first.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at, last_message_at
		FROM conversations
		WHERE user_id = ?
		ORDER BY COALESCE(last_message_at, created_at) DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	convs := []Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// DeleteConversation removes userID's conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(sc scanner) (Conversation, error) {
	var (
		conv    Conversation
		created int64
		last    sql.NullInt64
	)
	if err := sc.Scan(&conv.ID, &conv.UserID, &conv.Title, &created, &last); err != nil {
		return Conversation{}, err
	}
	conv.CreatedAt = time.UnixMicro(created).UTC()
	if last.Valid {
		t := time.UnixMicro(last.Int64).UTC()
		conv.LastMessageAt = &t
	}
	return conv, nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// AddMessage appends msg to its conversation and touches the conversation's
// last_message_at. ID and CreatedAt are filled in when empty.
func (s *Store) AddMessage(ctx context.Context, msg Message) (Message, error) {
	if msg.ID == "" {
		msg.ID = model.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now().UTC()
	}

	sources, err := marshalOptional(msg.Sources, len(msg.Sources) > 0)
	if err != nil {
		return Message{}, err
	}
	action, err := marshalOptional(msg.Action, msg.Action != nil)
	if err != nil {
		return Message{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	at := msg.CreatedAt.UnixMicro()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, rag_sources, function_call, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, sources, action, at); err != nil {
		return Message{}, fmt.Errorf("inserting message: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_at = ? WHERE id = ?`, at, msg.ConversationID); err != nil {
		return Message{}, fmt.Errorf("touching conversation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Message{}, fmt.Errorf("committing message: %w", err)
	}
	return msg, nil
}

// Messages returns a conversation's turns in insertion order.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, rag_sources, function_call, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at, rowid`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var (
			msg             Message
			role            string
			sources, action sql.NullString
			created         int64
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &sources, &action, &created); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Role = model.Role(role)
		msg.CreatedAt = time.UnixMicro(created).UTC()
		if sources.Valid {
			if err := json.Unmarshal([]byte(sources.String), &msg.Sources); err != nil {
				return nil, fmt.Errorf("decoding sources: %w", err)
			}
		}
		if action.Valid {
			msg.Action = &model.Action{}
			if err := json.Unmarshal([]byte(action.String), msg.Action); err != nil {
				return nil, fmt.Errorf("decoding function call: %w", err)
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func marshalOptional(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding column: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// =============================================================================
// CALENDAR
// =============================================================================

// CreateEvent inserts a calendar event.
func (s *Store) CreateEvent(ctx context.Context, ev CalendarEvent) (CalendarEvent, error) {
	ev.CreatedAt = s.now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO calendar_events (user_id, title, description, event_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		ev.UserID, ev.Title, ev.Description, ev.EventDate, ev.CreatedAt.UnixMicro())
	if err != nil {
		return CalendarEvent{}, fmt.Errorf("creating event: %w", err)
	}
	if ev.ID, err = res.LastInsertId(); err != nil {
		return CalendarEvent{}, fmt.Errorf("reading event id: %w", err)
	}
	return ev, nil
}

// Events returns userID's calendar events ordered by date.
func (s *Store) Events(ctx context.Context, userID string) ([]CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, event_date, created_at
		FROM calendar_events
		WHERE user_id = ?
		ORDER BY event_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events := []CalendarEvent{}
	for rows.Next() {
		var (
			ev      CalendarEvent
			created int64
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Title, &ev.Description, &ev.EventDate, &created); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.CreatedAt = time.UnixMicro(created).UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}
