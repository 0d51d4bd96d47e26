// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// Markdown renders assistant prose for terminal display. The underlying
// glamour renderer is rebuilt only when the wrap width changes, since
// construction walks the full style tree.
type Markdown struct {
	renderer *glamour.TermRenderer
	width    int
	dark     bool
}

// NewMarkdown creates a markdown renderer wrapping at width columns.
func NewMarkdown(width int, dark bool) *Markdown {
	m := &Markdown{dark: dark}
	m.SetWidth(width)
	return m
}

// SetWidth updates the wrap width, rebuilding the renderer if needed.
func (m *Markdown) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == m.width && m.renderer != nil {
		return
	}
	m.width = width

	style := "light"
	if m.dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Keep the previous renderer, or fall back to plain text.
		return
	}
	m.renderer = r
}

// Render renders markdown content. Returns the input unchanged when the
// renderer is unavailable or fails, so a rendering bug never eats a message.
func (m *Markdown) Render(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	// Glamour pads with leading and trailing blank lines; the transcript
	// manages its own spacing.
	return strings.Trim(out, "\n")
}
