// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/learntab-tui/internal/extract"
	"github.com/jeranaias/learntab-tui/internal/model"
	"github.com/jeranaias/learntab-tui/internal/tabs"
	"github.com/jeranaias/learntab-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update is the Bubble Tea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshViewport()

	case StateMsg:
		atBottom := m.viewport.AtBottom()
		m.state = msg.State
		m.recordCompletedTurns()
		m.refreshViewport()
		if atBottom || m.streaming() {
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, waitForState(m.states))

	case SendResultMsg:
		if msg.Err != nil {
			m.errText = msg.Err.Error()
		}

	case DiveResultMsg:
		if msg.Err != nil {
			m.errText = msg.Err.Error()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey routes a keypress. Any key clears a stale error message.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errText = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.diveMode {
			m.setDiveMode(false)
			return m, nil
		}
		m.registry.CancelActive()
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		m.registry.NavigateNext()
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.registry.NavigatePrev()
		return m, nil

	case key.Matches(msg, m.keys.CloseTab):
		if err := m.registry.CloseActive(); err != nil {
			m.errText = err.Error()
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		m.registry.NewChat()
		return m, nil

	case key.Matches(msg, m.keys.Dive):
		m.setDiveMode(!m.diveMode)
		return m, nil

	case key.Matches(msg, diveDigits):
		return m, m.openChipByDigit(msg.String())

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit dispatches the input line: a deep-dive term in dive mode, a slash
// command, or a chat message.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()

	if m.diveMode {
		m.setDiveMode(false)
		return m, m.openDive(text, "")
	}

	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}

	m.sentAt = time.Now()
	return m, m.sendMessage(text)
}

// runCommand handles the small slash-command set.
func (m Model) runCommand(text string) (tea.Model, tea.Cmd) {
	cmd, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/dive":
		if rest == "" {
			m.errText = "usage: /dive <term>"
			return m, nil
		}
		return m, m.openDive(rest, "")
	case "/new":
		m.registry.NewChat()
		return m, nil
	case "/learn":
		learning, _ := m.registry.Modes()
		m.registry.SetLearningMode(!learning)
		return m, nil
	case "/search":
		_, webSearch := m.registry.Modes()
		m.registry.SetWebSearch(!webSearch)
		return m, nil
	case "/help":
		m.registry.OpenStatic("Help", helpText)
		return m, nil
	default:
		m.errText = "unknown command: " + cmd
		return m, nil
	}
}

// sendMessage submits a chat message to the registry off the UI goroutine.
func (m Model) sendMessage(text string) tea.Cmd {
	registry := m.registry
	return func() tea.Msg {
		return SendResultMsg{Err: registry.SendMessage(context.Background(), text)}
	}
}

// openDive opens a deep-dive tab for the term. The definition, when the term
// came from a chip, seeds the tab's preload summary.
func (m Model) openDive(term, definition string) tea.Cmd {
	registry := m.registry
	return func() tea.Msg {
		return DiveResultMsg{Term: term, Err: registry.OpenDeepDive(context.Background(), term, definition)}
	}
}

// openChipByDigit opens the nth chip of the newest assistant message on the
// active tab, where the key is "alt+1" through "alt+9".
func (m Model) openChipByDigit(keyName string) tea.Cmd {
	n := int(keyName[len(keyName)-1] - '0')
	chips := m.activeChips()
	if n < 1 || n > len(chips) {
		return nil
	}
	return m.openDive(chips[n-1].Term, chips[n-1].Explanation)
}

// activeChips lists the chips of the newest completed assistant message on
// the active tab's transcript, deduplicated by term.
func (m Model) activeChips() []extract.Chip {
	transcript := m.activeTranscript()
	if transcript == nil {
		return nil
	}
	for i := len(transcript.Messages) - 1; i >= 0; i-- {
		msg := transcript.Messages[i]
		if msg.Role != model.RoleAssistant || msg.IsStreaming {
			continue
		}
		return components.Chips(extract.Segments(msg.Content))
	}
	return nil
}

// activeTranscript resolves the chat backing the active tab: the active chat
// on the main tab, the tab transcript on a deep dive, nil otherwise.
func (m Model) activeTranscript() *model.Chat {
	tab := m.state.ActiveTab()
	if tab == nil {
		return nil
	}
	if tab.ID == tabs.MainTabID {
		return m.state.ActiveChat()
	}
	return tab.Transcript
}

// setDiveMode toggles the input between chat and deep-dive entry.
func (m *Model) setDiveMode(on bool) {
	m.diveMode = on
	if on {
		m.input.Placeholder = divePlaceholder
	} else {
		m.input.Placeholder = promptPlaceholder
	}
}

// recordCompletedTurns bills newly finished assistant turns to the usage
// tracker. Snapshots replay whole state, so finished IDs are remembered.
func (m *Model) recordCompletedTurns() {
	if m.usage == nil {
		return
	}
	duration := time.Since(m.sentAt)

	record := func(chat *model.Chat) {
		if chat == nil {
			return
		}
		for i, msg := range chat.Messages {
			if msg.Role != model.RoleAssistant || msg.IsStreaming || msg.Errored {
				continue
			}
			if msg.Usage.TotalTokens() == 0 || m.recorded[msg.ID] {
				continue
			}
			prompt := ""
			if i > 0 && chat.Messages[i-1].Role == model.RoleUser {
				prompt = chat.Messages[i-1].Content
			}
			m.usage.Record(chat.Model, prompt, msg.Usage, duration)
			m.recorded[msg.ID] = true
		}
	}

	for _, chat := range m.state.Chats {
		record(chat)
	}
	for _, tab := range m.state.Tabs {
		record(tab.Transcript)
	}
}
