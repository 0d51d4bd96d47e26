// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/learntab-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the bottom bar: activity on the left, model and usage on the
// right, key hints in between when room allows.
type StatusBar struct {
	Width     int
	ModelName string
	Usage     string // telemetry summary, e.g. "12 in / 840 out · $0.0131"
	Streaming bool
	Searching bool
	Err       string
	theme     *styles.Theme
}

// NewStatusBar creates a status bar renderer.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth updates the available width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// keyHints is the static shortcut reminder.
const keyHints = "alt+←/→ tabs · alt+↓ close · esc cancel · ctrl+n new · ctrl+c quit"

// View renders the status line.
func (s *StatusBar) View() string {
	var left string
	switch {
	case s.Err != "":
		left = s.theme.ErrorText.Render(s.Err)
	case s.Searching:
		left = s.theme.Searching.Render("searching the web…")
	case s.Streaming:
		left = s.theme.Searching.Render("streaming…")
	default:
		left = s.theme.StatusKey.Render(keyHints)
	}

	var rightParts []string
	if s.Usage != "" {
		rightParts = append(rightParts, s.theme.StatusKey.Render(s.Usage))
	}
	if s.ModelName != "" {
		rightParts = append(rightParts, s.theme.StatusModel.Render(s.ModelName))
	}
	right := strings.Join(rightParts, "  ")

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		// Drop the hints before dropping the model name.
		left = ""
		gap = s.Width - lipgloss.Width(right) - 2
		if gap < 1 {
			gap = 1
		}
	}
	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}
