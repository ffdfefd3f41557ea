// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/babypolicy-chat/internal/model"
	"github.com/jeranaias/babypolicy-chat/internal/util"
)

const (
	appTitle    = "육아 정책 도우미"
	appSubtitle = "AI가 맞춤 정책을 찾아드려요"

	// Sources shown under an assistant turn
	maxSources = 2
)

// =============================================================================
// MAIN VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "불러오는 중..."
	}

	main := m.viewport.View()
	if m.ctrl.SidebarOpen() {
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), main)
	}

	parts := []string{m.renderHeader(), main}
	if m.ctrl.Notice() != nil {
		parts = append(parts, m.renderNotice())
	}
	parts = append(parts, m.renderBottom(), m.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("👶 " + appTitle)
	subtitle := m.theme.HeaderSubtitle.Render(appSubtitle)
	return m.theme.Header.Width(m.width).Render(title + "\n" + subtitle)
}

// renderBottom draws the input, or the open confirmation in its place.
func (m Model) renderBottom() string {
	if id := m.ctrl.PendingDelete(); id != "" {
		return m.renderDeleteDialog(id)
	}
	if id := m.ctrl.PendingAction(); id != "" {
		return m.renderActionDialog(id)
	}
	return m.theme.InputContainer.Render(m.input.View())
}

func (m Model) renderNotice() string {
	n := m.ctrl.Notice()
	if n == nil {
		return ""
	}
	return m.theme.Notice.Render("⚠ " + n.Text() + "  (esc 닫기)")
}

func (m Model) renderStatusBar() string {
	bindings := m.keys.ShortHelp()
	switch {
	case m.ctrl.PendingDelete() != "" || m.ctrl.PendingAction() != "":
		bindings = m.keys.DialogHelp()
	case m.ctrl.SidebarOpen():
		bindings = m.keys.SidebarHelp()
	}

	items := make([]string, 0, len(bindings))
	for _, b := range bindings {
		items = append(items, m.renderBinding(b))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(items, "  "))
}

func (m Model) renderBinding(b key.Binding) string {
	h := b.Help()
	return m.theme.ShortcutKey.Render(h.Key) + " " + m.theme.ShortcutDesc.Render(h.Desc)
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderMessages draws the whole log plus the pending-reply indicator.
func (m Model) renderMessages() string {
	msgs := m.ctrl.Messages()
	selected := m.selectedActionID()

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderMessage(msg, msg.ID == selected))
	}

	if m.ctrl.Sending() {
		b.WriteString("\n\n")
		b.WriteString(m.theme.Thinking.Render(m.spinner.View() + " 답변을 준비하고 있어요..."))
	}
	if id := m.ctrl.Selecting(); id != "" {
		b.WriteString("\n\n")
		b.WriteString(m.theme.Thinking.Render(m.spinner.View() + " 대화를 불러오는 중..."))
	}
	return b.String()
}

func (m Model) renderMessage(msg model.Message, selected bool) string {
	width := m.bubbleWidth()
	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())

	if msg.Role == model.RoleUser {
		bubble := m.theme.UserBubble.MaxWidth(width + 4).Render(wrap(msg.Content, width))
		block := lipgloss.JoinVertical(lipgloss.Right, label, bubble)
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, block)
	}

	content := wrap(msg.Content, width)
	if m.render != nil {
		content = m.render.render(msg.ID, msg.Content)
	}

	parts := []string{label, m.theme.AssistantBubble.Render(content)}
	if sources := msg.TopSources(maxSources); len(sources) > 0 {
		parts = append(parts, m.renderSources(sources, width))
	}
	if msg.HasAction() {
		parts = append(parts, m.renderAction(msg, selected))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderSources(sources []model.Source, width int) string {
	lines := []string{m.theme.SourceHeading.Render("📋 참고 정책")}
	for _, s := range sources {
		title := m.theme.SourceTitle.Render(util.TruncateWidth(s.DocID, width))
		body := util.TruncateRunes(util.SingleLine(s.Content), 100)
		lines = append(lines, m.theme.SourceBox.Render(title+"\n"+wrap(body, width-2)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderAction(msg model.Message, selected bool) string {
	label := msg.Action.Label()
	if m.ctrl.ActionInFlight(msg.ID) {
		return m.theme.ActionDisabled.Render("⏳ 실행 중... " + label)
	}
	button := m.theme.ActionButton.Render("▶ " + label)
	if selected {
		button += " " + m.theme.ShortcutDesc.Render("(ctrl+e)")
	}
	return button
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar() string {
	width := m.sidebarWidth - 4
	dir := m.ctrl.Directory()
	active := m.ctrl.ActiveConversationID()
	selecting := m.ctrl.Selecting()

	lines := []string{
		m.theme.SidebarTitle.Render("대화 목록"),
		m.theme.SessionMeta.Render("+ 새 대화 (ctrl+n)"),
		"",
	}

	convs := m.ctrl.Conversations()
	switch {
	case len(convs) == 0 && !dir.Loaded():
		lines = append(lines, m.theme.SessionMeta.Render("불러오는 중..."))
	case len(convs) == 0:
		lines = append(lines, m.theme.SessionMeta.Render("대화가 없습니다"))
	}

	for i, c := range convs {
		marker := "  "
		if c.ID == active {
			marker = "● "
		}
		title := marker + util.TruncateWidth(c.DisplayTitle(), width-2)

		meta := "  " + formatActivity(c)
		switch {
		case dir.Deleting(c.ID):
			meta = "  삭제 중..."
		case c.ID == selecting:
			meta = "  불러오는 중..."
		}

		style := m.theme.SessionItem
		switch {
		case i == m.cursor:
			style = m.theme.SessionItemSelected
		case c.ID == active:
			style = m.theme.SessionItemActive
		}
		lines = append(lines, style.Width(width).Render(title), m.theme.SessionMeta.Render(meta))
	}

	height := m.viewport.Height
	return m.theme.Sidebar.Width(width).Height(height).MaxHeight(height + 2).Render(strings.Join(lines, "\n"))
}

func formatActivity(c model.Conversation) string {
	at := c.ActivityAt()
	if at.IsZero() {
		return ""
	}
	return at.Local().Format("01/02 15:04")
}

// =============================================================================
// DIALOGS
// =============================================================================

func (m Model) renderDeleteDialog(id string) string {
	title := model.DefaultTitle
	if c, ok := m.ctrl.Directory().Get(id); ok {
		title = c.DisplayTitle()
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.DialogTitle.Render("대화 삭제"),
		m.theme.DialogDanger.Render(fmt.Sprintf("「%s」 대화를 삭제할까요? 되돌릴 수 없습니다.", util.TruncateWidth(title, 40))),
		m.theme.DialogHint.Render("y 삭제 · n 취소"),
	)
	return m.theme.Dialog.Render(body)
}

func (m Model) renderActionDialog(id string) string {
	lines := []string{m.theme.DialogTitle.Render("작업 실행")}
	for _, msg := range m.ctrl.Messages() {
		if msg.ID != id || !msg.HasAction() {
			continue
		}
		lines = append(lines, msg.Action.Label())
		for _, k := range msg.Action.ArgumentKeys() {
			lines = append(lines, m.theme.SessionMeta.Render(fmt.Sprintf("  %s: %v", k, msg.Action.Arguments[k])))
		}
	}
	lines = append(lines, m.theme.DialogHint.Render("y 실행 · n 취소"))
	return m.theme.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// wrap soft-wraps plain text at width columns.
func wrap(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}
