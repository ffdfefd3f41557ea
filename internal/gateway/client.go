// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for the policy assistant backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeranaias/babypolicy-chat/internal/model"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// DefaultBaseURL is the backend API root used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api"

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 64 * 1024

// ClientConfig holds configuration options for the gateway client.
type ClientConfig struct {
	// BaseURL is the API root, including any path prefix (default: http://localhost:8000/api)
	BaseURL string

	// Timeout for each request. Zero means no timeout.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: DefaultBaseURL,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a typed wrapper around the backend's chat and conversation
// endpoints. Every call takes the bearer token explicitly; an empty token
// fails with ErrMissingCredential before any request is made.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := gateway.NewClient(gateway.DefaultConfig())
//	reply, err := client.SendMessage(ctx, token, "임신 중 지원금", "")
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new gateway client.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// SendMessage sends a user message. An empty conversationID asks the backend
// to create a new conversation; its id is returned in the reply.
func (c *Client) SendMessage(ctx context.Context, token, text, conversationID string) (*model.Reply, error) {
	req := ChatRequest{Message: text, ConversationID: optionalID(conversationID)}

	var resp ChatResponse
	if err := c.do(ctx, token, http.MethodPost, "/chat", req, &resp); err != nil {
		return nil, err
	}
	return resp.toReply(), nil
}

// ExecuteAction runs an assistant-proposed action and returns the backend's
// confirmation text, which may be empty.
func (c *Client) ExecuteAction(ctx context.Context, token string, action model.Action, conversationID string) (string, error) {
	args := action.Arguments
	if args == nil {
		args = map[string]any{}
	}
	req := FunctionRequest{Name: action.Name, Arguments: args, ConversationID: optionalID(conversationID)}

	var resp FunctionResponse
	if err := c.do(ctx, token, http.MethodPost, "/chat/function", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// ListConversations returns the summaries of every conversation owned by the
// token's user, in the order the backend returns them.
func (c *Client) ListConversations(ctx context.Context, token string) ([]model.Conversation, error) {
	var records []ConversationRecord
	if err := c.do(ctx, token, http.MethodGet, "/conversations", nil, &records); err != nil {
		return nil, err
	}

	convs := make([]model.Conversation, 0, len(records))
	for _, r := range records {
		convs = append(convs, r.toConversation())
	}
	return convs, nil
}

// GetConversationMessages returns the full history of a conversation in
// server order.
func (c *Client) GetConversationMessages(ctx context.Context, token, conversationID string) ([]model.Message, error) {
	var records []MessageRecord
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.do(ctx, token, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}

	msgs := make([]model.Message, 0, len(records))
	for _, r := range records {
		msgs = append(msgs, r.toMessage())
	}
	return msgs, nil
}

// DeleteConversation deletes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, token, conversationID string) error {
	path := "/conversations/" + url.PathEscape(conversationID)
	return c.do(ctx, token, http.MethodDelete, path, nil, nil)
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one JSON request. body and out may be nil.
func (c *Client) do(ctx context.Context, token, method, path string, body, out any) error {
	if token == "" {
		return ErrMissingCredential
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "요청을 만들 수 없습니다", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "요청을 만들 수 없습니다", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, readDetail(resp.Body))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "응답을 해석할 수 없습니다", Cause: err}
	}
	return nil
}

// readDetail extracts the "detail" field of an error body, if any.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return ""
	}
	return eb.Detail
}
