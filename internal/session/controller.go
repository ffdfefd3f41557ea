// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/babypolicy-chat/internal/auth"
	"github.com/jeranaias/babypolicy-chat/internal/gateway"
	"github.com/jeranaias/babypolicy-chat/internal/logging"
	"github.com/jeranaias/babypolicy-chat/internal/model"
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Options configures a Controller.
type Options struct {
	Gateway Gateway
	Tokens  TokenSource

	// Logger receives directory failures and other diagnostics
	Logger *slog.Logger

	// WelcomeText overrides the seed turn
	WelcomeText string

	// Context is passed to every gateway call (default: background)
	Context context.Context
}

// Controller owns the session state for one chat screen. It is driven by a
// single event loop: operations return tea.Cmds whose results come back
// through Update. Controller is not safe for concurrent use.
type Controller struct {
	s state

	gateway     Gateway
	tokens      TokenSource
	logger      *slog.Logger
	welcomeText string
	ctx         context.Context
	now         func() time.Time
}

// New creates a controller showing a fresh conversation.
func New(opts Options) *Controller {
	c := &Controller{
		s: state{
			log:       NewMessageLog(),
			directory: NewDirectory(),
			actions:   NewActionTracker(),
		},
		gateway:     opts.Gateway,
		tokens:      opts.Tokens,
		logger:      opts.Logger,
		welcomeText: opts.WelcomeText,
		ctx:         opts.Context,
		now:         time.Now,
	}
	if c.logger == nil {
		c.logger = logging.Logger()
	}
	if c.welcomeText == "" {
		c.welcomeText = WelcomeText
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	c.startNew()
	return c
}

// Init loads the conversation list.
func (c *Controller) Init() tea.Cmd {
	return c.Refresh()
}

// Update applies an async result. Messages the controller does not own are
// ignored and yield nil.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	rev := c.s.log.Revision()

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case SendResultMsg:
		cmd = c.handleSendResult(msg)
	case ConversationsMsg:
		c.handleConversations(msg)
	case ConversationLoadedMsg:
		c.handleLoaded(msg)
	case DeleteResultMsg:
		cmd = c.handleDeleted(msg)
	case ActionResultMsg:
		c.handleActionResult(msg)
	default:
		return nil
	}

	return c.scrollIfChanged(rev, cmd)
}

// =============================================================================
// SENDING
// =============================================================================

// Submit sends text as a user message. The user turn is appended before the
// request goes out. It returns false, and does nothing, when text is blank
// or a send is already pending; the caller keeps its input buffer then.
func (c *Controller) Submit(text string) (tea.Cmd, bool) {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" || c.s.sending {
		return nil, false
	}

	rev := c.s.log.Revision()
	c.s.log.Append(model.NewUserMessage(text))
	c.s.sending = true

	view := c.s.view()
	c.logger.Debug("sending message", "conversation_id", view.ConversationID, "chars", len([]rune(text)))

	var cmd tea.Cmd
	if token, err := c.token(); err != nil {
		cmd = resultCmd(SendResultMsg{View: view, Err: err})
	} else {
		gw, ctx := c.gateway, c.ctx
		cmd = func() tea.Msg {
			reply, err := gw.SendMessage(ctx, token, text, view.ConversationID)
			return SendResultMsg{View: view, Reply: reply, Err: err}
		}
	}

	return c.scrollIfChanged(rev, cmd), true
}

func (c *Controller) handleSendResult(msg SendResultMsg) tea.Cmd {
	c.s.sending = false
	stale := !msg.View.Matches(c.s.view())

	if msg.Err == nil && msg.Reply == nil {
		msg.Err = &gateway.ClientError{Type: gateway.ErrTypeInvalidResponse, Message: "응답이 비어 있습니다"}
	}

	if msg.Err != nil {
		c.logger.Warn("send failed", "conversation_id", msg.View.ConversationID, "error", msg.Err)
		if stale {
			c.logger.Debug("discarding stale send failure")
			return nil
		}
		c.s.log.Append(model.NewAssistantMessage(SendErrorText(msg.Err)))
		return nil
	}

	if stale {
		c.logger.Debug("discarding stale reply", "conversation_id", msg.Reply.ConversationID)
	} else {
		c.s.log.Append(model.MessageFromReply(msg.Reply))
		if c.s.activeID == "" && msg.Reply.ConversationID != "" {
			c.s.activeID = msg.Reply.ConversationID
			c.logger.Info("conversation created", "conversation_id", c.s.activeID)
		}
	}

	// The backend created or touched a conversation either way
	return c.Refresh()
}

// =============================================================================
// SIDEBAR AND NOTICES
// =============================================================================

// ToggleSidebar opens or closes the conversation list. Opening it refreshes
// the list.
func (c *Controller) ToggleSidebar() tea.Cmd {
	c.s.sidebarOpen = !c.s.sidebarOpen
	if c.s.sidebarOpen {
		return c.Refresh()
	}
	return nil
}

// CloseSidebar closes the conversation list.
func (c *Controller) CloseSidebar() {
	c.s.sidebarOpen = false
}

// DismissNotice clears the current notice.
func (c *Controller) DismissNotice() {
	c.s.notice = nil
}

func (c *Controller) report(op Operation, id string, err error) {
	c.s.notice = &Notice{Op: op, ConversationID: id, Err: err, At: c.now()}
}

func (c *Controller) clearNotice(op Operation) {
	if c.s.notice != nil && c.s.notice.Op == op {
		c.s.notice = nil
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Messages returns the displayed log.
func (c *Controller) Messages() []model.Message { return c.s.log.Messages() }

// LogRevision changes whenever the displayed log does.
func (c *Controller) LogRevision() uint64 { return c.s.log.Revision() }

// ActiveConversationID returns the active conversation, or "" before the
// first reply of a new conversation.
func (c *Controller) ActiveConversationID() string { return c.s.activeID }

// View returns the current view key.
func (c *Controller) View() ViewKey { return c.s.view() }

// Conversations returns the directory newest first.
func (c *Controller) Conversations() []model.Conversation { return c.s.directory.List() }

// Directory exposes the directory for read-only queries.
func (c *Controller) Directory() *Directory { return c.s.directory }

// SidebarOpen reports whether the conversation list is shown.
func (c *Controller) SidebarOpen() bool { return c.s.sidebarOpen }

// Sending reports whether a send is pending.
func (c *Controller) Sending() bool { return c.s.sending }

// Selecting returns the conversation being loaded, if any.
func (c *Controller) Selecting() string { return c.s.selecting }

// PendingDelete returns the conversation awaiting delete confirmation.
func (c *Controller) PendingDelete() string { return c.s.pendingDelete }

// PendingAction returns the message whose action awaits confirmation.
func (c *Controller) PendingAction() string { return c.s.pendingAction }

// ActionInFlight reports whether messageID's action is executing.
func (c *Controller) ActionInFlight(messageID string) bool {
	return c.s.actions.InFlight(messageID)
}

// ActionsRunning returns how many actions are executing.
func (c *Controller) ActionsRunning() int { return c.s.actions.Len() }

// Notice returns the latest directory failure, or nil.
func (c *Controller) Notice() *Notice {
	if c.s.notice == nil {
		return nil
	}
	n := *c.s.notice
	return &n
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Controller) welcome() model.Message {
	return model.NewAssistantMessage(c.welcomeText)
}

// token returns the bearer token. An absent token is ErrMissingCredential;
// any other source failure is reported with its cause.
func (c *Controller) token() (string, error) {
	if c.tokens == nil {
		return "", gateway.ErrMissingCredential
	}
	tok, err := c.tokens.Token()
	switch {
	case errors.Is(err, auth.ErrNoToken):
		return "", gateway.ErrMissingCredential
	case err != nil:
		return "", gateway.CredentialError(err)
	case tok == "":
		return "", gateway.ErrMissingCredential
	}
	return tok, nil
}

func (c *Controller) scrollIfChanged(rev uint64, cmd tea.Cmd) tea.Cmd {
	if c.s.log.Revision() == rev {
		return cmd
	}
	return tea.Batch(cmd, ScrollToLatestCmd())
}
