// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/babypolicy-chat/internal/session"
	"github.com/jeranaias/babypolicy-chat/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// Options configures the chat screen.
type Options struct {
	Controller *session.Controller
	Theme      *styles.Theme

	// Markdown renders assistant turns through glamour
	Markdown bool

	// SidebarWidth is the conversation list width in columns (default: 32)
	SidebarWidth int
}

// Model is the Bubble Tea model for the chat screen. All conversation state
// lives in the session controller; the model only owns widgets and layout.
type Model struct {
	ctrl  *session.Controller
	theme *styles.Theme
	keys  KeyMap

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	render   *renderer

	markdown     bool
	sidebarWidth int

	width  int
	height int
	ready  bool

	// Sidebar selection index into the directory listing
	cursor int

	// actionSel is the message whose proposal ctrl+e runs. Empty or gone
	// from the log means the newest proposal.
	actionSel string

	// ticking is set while a spinner tick loop is running
	ticking bool
}

// New creates the chat screen.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}
	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "궁금한 육아 정책을 물어보세요..."
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.CharLimit = 4096
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"·  ", "·· ", "···", " ··", "  ·"},
		FPS:    time.Second / 8,
	}
	sp.Style = theme.Thinking

	width := opts.SidebarWidth
	if width <= 0 {
		width = 32
	}

	m := Model{
		ctrl:         opts.Controller,
		theme:        theme,
		keys:         keys,
		input:        ta,
		viewport:     vp,
		spinner:      sp,
		markdown:     opts.Markdown,
		sidebarWidth: width,
	}
	if m.markdown {
		m.render = newRenderer(theme.MarkdownStyle(), vp.Width)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.ctrl.Init(), textarea.Blink)
}

// Controller returns the session controller behind the screen.
func (m Model) Controller() *session.Controller {
	return m.ctrl
}

// Input returns the current input buffer.
func (m Model) Input() string {
	return m.input.Value()
}

// SetInput replaces the input buffer.
func (m *Model) SetInput(s string) {
	m.input.SetValue(s)
}

// Cursor returns the sidebar selection index.
func (m Model) Cursor() int {
	return m.cursor
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		cmds = append(cmds, m.handleKey(msg))

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case session.ScrollToLatestMsg:
		m.syncContent()
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.syncContent()
		return m, cmd

	default:
		if cmd := m.ctrl.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		} else {
			// Cursor blink and other widget messages
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.clampCursor()
	m.layout()
	m.syncContent()
	cmds = append(cmds, m.startSpinner())
	return m, tea.Batch(cmds...)
}

// handleKey routes a key press. Dialogs take precedence over the sidebar,
// which takes precedence over the input.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	// Delete confirmation
	if m.ctrl.PendingDelete() != "" {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m.ctrl.ConfirmDelete()
		case key.Matches(msg, m.keys.Deny):
			m.ctrl.CancelDelete()
		}
		return nil
	}

	// Action confirmation
	if m.ctrl.PendingAction() != "" {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m.ctrl.ConfirmAction()
		case key.Matches(msg, m.keys.Deny):
			m.ctrl.CancelAction()
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.ToggleSidebar):
		cmd := m.ctrl.ToggleSidebar()
		if m.ctrl.SidebarOpen() {
			m.cursor = m.activeIndex()
		}
		return cmd

	case key.Matches(msg, m.keys.NewChat):
		return m.ctrl.StartNew()

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	if m.ctrl.SidebarOpen() {
		return m.handleSidebarKey(msg)
	}

	switch {
	case msg.Type == tea.KeyEsc:
		m.ctrl.DismissNotice()
		return nil

	case key.Matches(msg, m.keys.RunAction):
		if id := m.selectedActionID(); id != "" {
			m.ctrl.RequestAction(id)
		}
		return nil

	case key.Matches(msg, m.keys.PrevAction):
		m.moveActionSelection(-1)
		return nil

	case key.Matches(msg, m.keys.NextAction):
		m.moveActionSelection(1)
		return nil

	case key.Matches(msg, m.keys.Submit):
		cmd, ok := m.ctrl.Submit(m.input.Value())
		if ok {
			m.input.Reset()
		}
		return cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	convs := m.ctrl.Conversations()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(convs)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(convs) {
			return m.ctrl.Select(convs[m.cursor].ID)
		}
	case key.Matches(msg, m.keys.Delete):
		if m.cursor < len(convs) {
			m.ctrl.RequestDelete(convs[m.cursor].ID)
		}
	case msg.Type == tea.KeyEsc:
		m.ctrl.CloseSidebar()
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// busy reports whether something the spinner animates is outstanding.
func (m Model) busy() bool {
	return m.ctrl.Sending() || m.ctrl.ActionsRunning() > 0 || m.ctrl.Selecting() != ""
}

// startSpinner begins a tick loop if one is needed and not running.
func (m *Model) startSpinner() tea.Cmd {
	if m.ticking || !m.busy() {
		return nil
	}
	m.ticking = true
	return m.spinner.Tick
}

// actionIDs returns the messages that propose an action, oldest first.
func (m Model) actionIDs() []string {
	var ids []string
	for _, msg := range m.ctrl.Messages() {
		if msg.HasAction() {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}

// selectedActionID returns the proposal ctrl+e runs.
func (m Model) selectedActionID() string {
	ids := m.actionIDs()
	if len(ids) == 0 {
		return ""
	}
	for _, id := range ids {
		if id == m.actionSel {
			return id
		}
	}
	return ids[len(ids)-1]
}

// moveActionSelection steps the selection delta proposals, clamped to the
// log.
func (m *Model) moveActionSelection(delta int) {
	ids := m.actionIDs()
	if len(ids) == 0 {
		return
	}
	cur := len(ids) - 1
	sel := m.selectedActionID()
	for i, id := range ids {
		if id == sel {
			cur = i
			break
		}
	}
	cur = max(0, min(cur+delta, len(ids)-1))
	m.actionSel = ids[cur]
}

func (m Model) activeIndex() int {
	active := m.ctrl.ActiveConversationID()
	for i, c := range m.ctrl.Conversations() {
		if c.ID == active {
			return i
		}
	}
	return 0
}

func (m *Model) clampCursor() {
	n := m.ctrl.Directory().Len()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// layout sizes the widgets for the current window.
func (m *Model) layout() {
	if !m.ready {
		return
	}

	mainWidth := m.width
	if m.ctrl.SidebarOpen() {
		mainWidth -= m.sidebarWidth
	}
	if mainWidth < 20 {
		mainWidth = 20
	}

	m.input.SetWidth(mainWidth - 4)

	used := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderBottom()) +
		lipgloss.Height(m.renderStatusBar())
	if m.ctrl.Notice() != nil {
		used += lipgloss.Height(m.renderNotice())
	}

	height := m.height - used
	if height < 3 {
		height = 3
	}
	m.viewport.Width = mainWidth
	m.viewport.Height = height

	if m.render != nil {
		m.render.setWidth(m.bubbleWidth())
	}
}

// syncContent re-renders the message log into the viewport.
func (m *Model) syncContent() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// bubbleWidth is the text width inside a message bubble.
func (m Model) bubbleWidth() int {
	w := m.viewport.Width*4/5 - 4
	if w < 16 {
		w = 16
	}
	return w
}
