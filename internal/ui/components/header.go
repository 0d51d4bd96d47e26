// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/learntab-tui/internal/ui/styles"
	"github.com/jeranaias/learntab-tui/internal/util"
)

// =============================================================================
// HEADER
// =============================================================================

// Header is the one-line title bar: app name on the left, mode badges on
// the right.
type Header struct {
	Width        int
	ChatTitle    string
	LearningMode bool
	WebSearch    bool
	theme        *styles.Theme
}

// NewHeader creates a header renderer.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Width: 80, theme: theme}
}

// SetWidth updates the available width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header line.
func (h *Header) View() string {
	left := h.theme.HeaderTitle.Render("learntab")
	if h.ChatTitle != "" {
		left += h.theme.HeaderMeta.Render(" · " + util.TruncateRunes(h.ChatTitle, 40))
	}

	var badges []string
	if h.LearningMode {
		badges = append(badges, "learn")
	}
	if h.WebSearch {
		badges = append(badges, "search")
	}
	right := h.theme.HeaderMeta.Render(strings.Join(badges, " "))

	gap := h.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	return h.theme.HeaderBar.Width(h.Width).Render(line)
}
