// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/learntab-tui/internal/extract"
	"github.com/jeranaias/learntab-tui/internal/model"
	"github.com/jeranaias/learntab-tui/internal/tabs"
	"github.com/jeranaias/learntab-tui/internal/ui/components"
)

// =============================================================================
// LAYOUT
// =============================================================================

// chromeHeight is the rows consumed around the viewport: bordered header
// and tab bar rows, the bordered input box, and the status line.
const chromeHeight = 8

// resize propagates a new terminal size to every component.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	m.header.SetWidth(width)
	m.tabBar.SetWidth(width)
	m.status.SetWidth(width)
	m.markdown.SetWidth(width - 4)
	m.input.Width = width - 8

	vpHeight := height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
}

// refreshViewport re-renders the active tab's body into the viewport.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderActiveTab())
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready {
		return "loading learntab..."
	}

	active := m.state.ActiveTab()
	chat := m.state.ActiveChat()

	m.header.LearningMode, m.header.WebSearch = m.registry.Modes()
	m.header.ChatTitle = ""
	if chat != nil {
		m.header.ChatTitle = chat.GetTitle()
	}

	m.status.Streaming = m.streaming()
	m.status.Searching = m.searching()
	m.status.Err = m.errText
	m.status.ModelName = activeModelName(active, chat)
	if m.usage != nil {
		m.status.Usage = m.usage.FormatSummary()
	}

	inputLabel := m.input.View()
	if m.diveMode {
		inputLabel = m.theme.Chip.Render("dive") + " " + inputLabel
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		m.tabBar.View(m.state, m.spinnerFrame()),
		m.viewport.View(),
		m.theme.InputBox.Width(m.width-2).Render(inputLabel),
		m.status.View(),
	)
}

// spinnerFrame is the current spinner frame, shown only while streaming.
func (m Model) spinnerFrame() string {
	if !m.streaming() {
		return ""
	}
	return m.spin.View()
}

// activeModelName picks the model label for the status bar.
func activeModelName(tab *tabs.Tab, chat *model.Chat) string {
	if tab != nil && tab.Kind == tabs.KindDeepDive && tab.Transcript != nil {
		return tab.Transcript.Model
	}
	if chat != nil {
		return chat.Model
	}
	return ""
}

// =============================================================================
// TAB BODIES
// =============================================================================

// renderActiveTab renders the body of the active tab.
func (m *Model) renderActiveTab() string {
	tab := m.state.ActiveTab()
	if tab == nil {
		return ""
	}

	switch tab.Kind {
	case tabs.KindMain:
		return m.renderTranscript(m.state.ActiveChat())
	case tabs.KindDeepDive:
		return m.renderDeepDive(tab)
	case tabs.KindArtifact:
		view := components.NewCodeView(tab.Language, tab.Content, m.theme.DarkBackground)
		view.Width = m.width
		return view.Render()
	default:
		return m.markdown.Render(tab.Content)
	}
}

// renderTranscript renders a chat conversation.
func (m *Model) renderTranscript(chat *model.Chat) string {
	if chat == nil || chat.IsEmpty() {
		return m.theme.Preload.Render("Start a conversation. Responses highlight terms you can explore with alt+1..9 or /dive.")
	}

	var sections []string
	for _, msg := range chat.Messages {
		sections = append(sections, m.renderMessage(msg))
	}
	return strings.Join(sections, "\n\n")
}

// renderMessage renders one message with its label, body, and metadata rows.
func (m *Model) renderMessage(msg *model.Message) string {
	if msg.Role == model.RoleUser {
		return m.theme.UserLabel.Render("You") + "\n" + m.theme.UserText.Render(msg.Content)
	}

	label := m.theme.AssistantLabel.Render("Assistant")
	body := m.renderAssistantBody(msg)

	var parts []string
	parts = append(parts, label+"\n"+body)

	if !msg.IsStreaming {
		if terms := components.ChipTerms(extract.Segments(msg.Content)); len(terms) > 0 {
			parts = append(parts, components.ChipPickList(terms, m.theme))
		}
		if row := components.RenderRelated(msg.RelatedTerms, m.theme); row != "" {
			parts = append(parts, row)
		}
		if row := components.RenderSources(msg.Sources, m.theme); row != "" {
			parts = append(parts, row)
		}
	}
	return strings.Join(parts, "\n")
}

// renderAssistantBody renders assistant text. A live stream shows raw
// segments with the chip markers collapsed and a spinner; a completed turn
// gets the full markdown treatment.
func (m *Model) renderAssistantBody(msg *model.Message) string {
	if msg.Errored {
		return m.theme.ErrorText.Render(msg.Content)
	}
	if msg.IsStreaming {
		text := components.RenderSegments(extract.Segments(msg.GetDisplayContent()), m.theme)
		if text == "" {
			return m.spin.View() + " " + m.theme.Preload.Render("thinking...")
		}
		return text + " " + m.spin.View()
	}
	return m.markdown.Render(flattenChips(msg.Content))
}

// flattenChips rewrites chip markers as emphasized terms so markdown
// rendering keeps them visible without the marker syntax.
func flattenChips(text string) string {
	var b strings.Builder
	for _, seg := range extract.Segments(text) {
		if seg.Chip != nil {
			b.WriteString("**")
			b.WriteString(seg.Chip.Term)
			b.WriteString("**")
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// renderDeepDive renders a deep dive tab: preload summary while loading,
// then the explanation with its related terms and sources.
func (m *Model) renderDeepDive(tab *tabs.Tab) string {
	var parts []string

	if tab.Loading {
		if tab.Preload != "" {
			parts = append(parts, m.theme.Preload.Render(tab.Preload))
		}
		if tab.Transcript != nil {
			if open := tab.Transcript.OpenMessage(); open != nil {
				text := components.RenderSegments(extract.Segments(open.GetDisplayContent()), m.theme)
				if text == "" {
					text = m.spin.View() + " " + m.theme.Preload.Render("exploring "+tab.Title+"...")
				} else {
					text += " " + m.spin.View()
				}
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n\n")
	}

	explanation := tab.Explanation
	if explanation == "" && tab.Transcript != nil {
		if last := tab.Transcript.LastMessage(); last != nil {
			explanation = last.Content
		}
	}
	parts = append(parts, m.markdown.Render(flattenChips(explanation)))

	if row := components.RenderRelated(tab.RelatedTerms, m.theme); row != "" {
		parts = append(parts, row)
	}
	if row := components.RenderSources(tab.Sources, m.theme); row != "" {
		parts = append(parts, row)
	}
	return strings.Join(parts, "\n\n")
}

// =============================================================================
// HELP
// =============================================================================

const helpText = `# learntab

A learning-first chat. Responses highlight key terms; open any of them in a
deep-dive tab without losing your place in the conversation.

## Keys

| Key | Action |
|-----|--------|
| Enter | send message |
| alt+→ / alt+← | next / previous tab |
| alt+↓ | close the active tab |
| alt+↑ | deep-dive entry mode |
| alt+1..9 | open a highlighted term |
| Esc | cancel the active stream |
| ctrl+n | new chat |
| ctrl+c | quit |

## Commands

- ` + "`/dive <term>`" + ` opens a deep dive on the term
- ` + "`/new`" + ` starts a fresh chat
- ` + "`/learn`" + ` toggles learning mode
- ` + "`/search`" + ` toggles web search
- ` + "`/help`" + ` opens this tab
`
