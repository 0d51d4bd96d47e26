// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// COLOR PALETTE - Adaptive colors for dark and light terminals
// =============================================================================

// Accent colors
var (
	// Purple is the primary brand accent, used for the header and active tab.
	Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

	// Cyan marks learning chips and interactive terms.
	Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#67E8F9"}

	// Emerald marks success states and completed sessions.
	Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#6EE7B7"}

	// Rose marks errors and destructive actions.
	Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FDA4AF"}

	// Amber marks in-flight work: streaming, searching, loading tabs.
	Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FCD34D"}
)

// Surface colors
var (
	// Surface is the default panel background.
	Surface = lipgloss.AdaptiveColor{Light: "#F8FAFC", Dark: "#1E1E2E"}

	// SurfaceDim is a recessed background for inactive elements.
	SurfaceDim = lipgloss.AdaptiveColor{Light: "#F1F5F9", Dark: "#181825"}

	// SurfaceBright is a raised background for focused elements.
	SurfaceBright = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#313244"}

	// Overlay is the border color for panels and dividers.
	Overlay = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#45475A"}

	// OverlayDim is a fainter border for secondary dividers.
	OverlayDim = lipgloss.AdaptiveColor{Light: "#E2E8F0", Dark: "#313244"}
)

// Text colors
var (
	// TextPrimary is the main body text color.
	TextPrimary = lipgloss.AdaptiveColor{Light: "#1E293B", Dark: "#CDD6F4"}

	// TextSecondary is for labels and supporting text.
	TextSecondary = lipgloss.AdaptiveColor{Light: "#475569", Dark: "#A6ADC8"}

	// TextMuted is for hints, timestamps, and de-emphasized text.
	TextMuted = lipgloss.AdaptiveColor{Light: "#94A3B8", Dark: "#6C7086"}
)
