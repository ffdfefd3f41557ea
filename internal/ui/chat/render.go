// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// renderer turns assistant markdown into terminal output. Rendered text is
// cached per message id since messages never change once logged.
type renderer struct {
	glamour *glamour.TermRenderer
	style   string
	width   int
	cache   map[string]string
}

// newRenderer creates a renderer wrapping at width. A nil renderer renders
// plain text.
func newRenderer(style string, width int) *renderer {
	r := &renderer{style: style, cache: map[string]string{}}
	r.setWidth(width)
	return r
}

// setWidth rebuilds the glamour renderer when the wrap width changes.
func (r *renderer) setWidth(width int) {
	if width < 20 {
		width = 20
	}
	if r.glamour != nil && width == r.width {
		return
	}
	gr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r.glamour = nil
		return
	}
	r.glamour = gr
	r.width = width
	r.cache = map[string]string{}
}

// render returns the rendered markdown for a message.
func (r *renderer) render(id, content string) string {
	if r == nil || r.glamour == nil {
		return content
	}
	if out, ok := r.cache[id]; ok {
		return out
	}
	rendered, err := r.glamour.Render(content)
	if err != nil {
		// Fall back to plain text on error
		return content
	}
	out := strings.Trim(rendered, "\n")
	r.cache[id] = out
	return out
}
