// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines the keyboard bindings for the learntab interface. Tab
// navigation lives on alt+arrows so the plain arrows stay free for the
// input field and transcript scrolling.
type KeyMap struct {
	Submit   key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	CloseTab key.Binding
	Dive     key.Binding
	NewChat  key.Binding
	Cancel   key.Binding
	Quit     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("alt+right"),
			key.WithHelp("alt+→", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("alt+left"),
			key.WithHelp("alt+←", "previous tab"),
		),
		CloseTab: key.NewBinding(
			key.WithKeys("alt+down"),
			key.WithHelp("alt+↓", "close tab"),
		),
		Dive: key.NewBinding(
			key.WithKeys("alt+up"),
			key.WithHelp("alt+↑", "deep dive"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel stream"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "scroll down"),
		),
	}
}

// diveDigits maps alt+1 through alt+9 to chip pick-list indexes.
var diveDigits = key.NewBinding(
	key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9"),
	key.WithHelp("alt+1..9", "open chip"),
)
