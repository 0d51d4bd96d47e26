// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/learntab-tui/internal/tabs"
)

// =============================================================================
// MESSAGES
// =============================================================================

// StateMsg carries a whole registry snapshot. Every mutation, whether from a
// keypress or a background stream, arrives as one of these.
type StateMsg struct {
	State tabs.State
}

// SendResultMsg reports the synchronous outcome of submitting a message.
// Stream failures surface later through StateMsg; this only carries
// rejections like sending into a static tab.
type SendResultMsg struct {
	Err error
}

// DiveResultMsg reports the outcome of opening a deep-dive tab.
type DiveResultMsg struct {
	Term string
	Err  error
}

// =============================================================================
// STATE BRIDGE
// =============================================================================

// StateBridge returns a registry observer and the channel it feeds. The
// channel holds at most one snapshot; a newer snapshot displaces an unread
// older one, so the UI always renders the latest state and the registry
// never blocks on a slow terminal.
func StateBridge() (func(tabs.State), chan tabs.State) {
	ch := make(chan tabs.State, 1)
	notify := func(s tabs.State) {
		for {
			select {
			case ch <- s:
				return
			default:
				select {
				case <-ch:
				default:
				}
			}
		}
	}
	return notify, ch
}

// waitForState blocks on the bridge channel and delivers the next snapshot.
// The update loop re-issues this command after every StateMsg.
func waitForState(ch chan tabs.State) tea.Cmd {
	return func() tea.Msg {
		return StateMsg{State: <-ch}
	}
}
