// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/learntab-tui/internal/tabs"
	"github.com/jeranaias/learntab-tui/internal/telemetry"
	"github.com/jeranaias/learntab-tui/internal/ui/components"
	"github.com/jeranaias/learntab-tui/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// promptPlaceholder and divePlaceholder label the two input modes.
const (
	promptPlaceholder = "Ask anything..."
	divePlaceholder   = "Term to explore..."
)

// Model is the Bubble Tea model for the learntab TUI.
type Model struct {
	registry *tabs.Registry
	states   chan tabs.State
	state    tabs.State
	usage    *telemetry.UsageTracker

	theme    *styles.Theme
	keys     KeyMap
	header   *components.Header
	tabBar   *components.TabBar
	status   *components.StatusBar
	markdown *components.Markdown

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	width  int
	height int
	ready  bool

	// diveMode repurposes the input: enter opens a deep dive instead of
	// sending a chat message.
	diveMode bool

	// errText is the last rejected action, shown in the status bar until
	// the next keypress.
	errText string

	// sentAt timestamps the last submit so completed turns can report a
	// wall-clock duration to the usage tracker.
	sentAt time.Time

	// recorded tracks message and tab IDs already counted by the usage
	// tracker, so a snapshot replay never double-bills a turn.
	recorded map[string]bool
}

// New creates the TUI model. The states channel must be the one whose
// observer half was handed to the registry (see StateBridge).
func New(registry *tabs.Registry, states chan tabs.State, usage *telemetry.UsageTracker, theme *styles.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = promptPlaceholder
	ti.Prompt = "> "
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 8,
	}
	sp.Style = theme.Spinner

	vp := viewport.New(80, 20)

	return Model{
		registry: registry,
		states:   states,
		state:    registry.Snapshot(),
		usage:    usage,
		theme:    theme,
		keys:     DefaultKeyMap(),
		header:   components.NewHeader(theme),
		tabBar:   components.NewTabBar(theme),
		status:   components.NewStatusBar(theme),
		markdown: components.NewMarkdown(76, theme.DarkBackground),
		viewport: vp,
		input:    ti,
		spin:     sp,
		recorded: make(map[string]bool),
	}
}

// Init starts the input blink, the spinner, and the state subscription.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spin.Tick,
		waitForState(m.states),
	)
}

// streaming reports whether any tab or the active chat has a live session.
func (m Model) streaming() bool {
	if chat := m.state.ActiveChat(); chat != nil {
		if open := chat.OpenMessage(); open != nil {
			return true
		}
	}
	for _, tab := range m.state.Tabs {
		if tab.Loading {
			return true
		}
	}
	return false
}

// searching reports whether the active tab's session is running a web search.
func (m Model) searching() bool {
	tab := m.state.ActiveTab()
	return tab != nil && tab.Searching
}
