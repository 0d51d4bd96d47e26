// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/learntab-tui/internal/tabs"
	"github.com/jeranaias/learntab-tui/internal/ui/styles"
)

// =============================================================================
// TAB BAR
// =============================================================================

// maxTabTitle is the widest a single tab label may render, in cells.
const maxTabTitle = 20

// kindGlyph marks a tab's kind in its label.
func kindGlyph(k tabs.Kind) string {
	switch k {
	case tabs.KindMain:
		return "#"
	case tabs.KindDeepDive:
		return ">"
	case tabs.KindStatic:
		return "?"
	case tabs.KindArtifact:
		return "="
	default:
		return " "
	}
}

// TabBar renders the row of open tabs.
type TabBar struct {
	Width int
	theme *styles.Theme
}

// NewTabBar creates a tab bar renderer.
func NewTabBar(theme *styles.Theme) *TabBar {
	return &TabBar{Width: 80, theme: theme}
}

// SetWidth updates the available width.
func (b *TabBar) SetWidth(width int) {
	b.Width = width
}

// View renders the tab bar for the given snapshot. The spinnerFrame is shown
// in place of the kind glyph on tabs with a live session.
func (b *TabBar) View(state tabs.State, spinnerFrame string) string {
	var cells []string
	for _, tab := range state.Tabs {
		label := kindGlyph(tab.Kind) + " " + truncateTitle(tab.Title, maxTabTitle)
		if tab.Loading && spinnerFrame != "" {
			label = spinnerFrame + " " + truncateTitle(tab.Title, maxTabTitle)
		}

		switch {
		case tab.ID == state.ActiveTabID:
			cells = append(cells, b.theme.TabActive.Render(label))
		case tab.Loading:
			cells = append(cells, b.theme.TabLoading.Render(label))
		default:
			cells = append(cells, b.theme.TabInactive.Render(label))
		}
	}

	row := joinFitting(cells, b.Width, b.theme)
	return b.theme.TabBar.Width(b.Width).Render(row)
}

// joinFitting joins tab cells left to right, dropping whole trailing tabs
// that would overflow the width. Clipping inside a styled cell would leave
// unterminated ANSI sequences, so overflow drops the cell instead; the
// active tab stays reachable through navigation regardless.
func joinFitting(cells []string, width int, theme *styles.Theme) string {
	overflow := theme.TabInactive.Render("…")
	used := 0
	var kept []string
	for i, cell := range cells {
		w := lipgloss.Width(cell)
		if used+w > width && i > 0 {
			kept = append(kept, overflow)
			break
		}
		kept = append(kept, cell)
		used += w
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, kept...)
}

// truncateTitle shortens a title to max display cells, appending an ellipsis
// marker. Uses runewidth so CJK and emoji titles truncate cleanly.
func truncateTitle(title string, max int) string {
	if runewidth.StringWidth(title) <= max {
		return title
	}
	return runewidth.Truncate(title, max-1, "…")
}
