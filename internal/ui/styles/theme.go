// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME - All styles the learntab views draw with
// =============================================================================

// Theme groups every lipgloss style used by the TUI. Views never construct
// styles inline; they take a *Theme so rendering stays consistent and the
// dark/light variants stay in one place.
type Theme struct {
	// Terminal capabilities detected at startup
	ColorProfile   termenv.Profile
	DarkBackground bool

	// Header
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style
	HeaderBar   lipgloss.Style

	// Tab bar
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TabLoading  lipgloss.Style
	TabBar      lipgloss.Style

	// Transcript
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserText       lipgloss.Style
	AssistantText  lipgloss.Style
	ErrorText      lipgloss.Style

	// Learning chips and deep dive metadata
	Chip         lipgloss.Style
	RelatedLabel lipgloss.Style
	RelatedTerm  lipgloss.Style
	SourceIndex  lipgloss.Style
	SourceTitle  lipgloss.Style
	SourceURL    lipgloss.Style
	Preload      lipgloss.Style

	// Status and input
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusModel lipgloss.Style
	Searching   lipgloss.Style
	InputBox    lipgloss.Style
	Spinner     lipgloss.Style
}

// NewTheme builds the theme, detecting the terminal's color profile and
// background so adaptive colors resolve correctly.
func NewTheme() *Theme {
	t := &Theme{
		ColorProfile:   termenv.ColorProfile(),
		DarkBackground: termenv.HasDarkBackground(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	// ==========================================================================
	// HEADER
	// ==========================================================================
	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)
	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.HeaderBar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)

	// ==========================================================================
	// TAB BAR
	// ==========================================================================
	t.TabActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(SurfaceBright).
		Background(Purple).
		Padding(0, 1)
	t.TabInactive = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.TabLoading = lipgloss.NewStyle().
		Foreground(Amber).
		Background(SurfaceDim).
		Padding(0, 1)
	t.TabBar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(OverlayDim)

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)
	t.UserText = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.AssistantText = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose)

	// ==========================================================================
	// LEARNING CHIPS AND DEEP DIVE METADATA
	// ==========================================================================
	t.Chip = lipgloss.NewStyle().
		Foreground(Cyan).
		Underline(true)
	t.RelatedLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)
	t.RelatedTerm = lipgloss.NewStyle().
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 1)
	t.SourceIndex = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.SourceTitle = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.SourceURL = lipgloss.NewStyle().
		Foreground(TextMuted).
		Underline(true)
	t.Preload = lipgloss.NewStyle().
		Italic(true).
		Foreground(TextSecondary)

	// ==========================================================================
	// STATUS AND INPUT
	// ==========================================================================
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.StatusModel = lipgloss.NewStyle().
		Foreground(Emerald)
	t.Searching = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)
	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)
}
