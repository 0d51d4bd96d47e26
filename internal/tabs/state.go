// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tabs

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jeranaias/learntab-tui/internal/model"
	"github.com/jeranaias/learntab-tui/internal/stream"
)

// =============================================================================
// TAB KIND
// =============================================================================

// Kind classifies a tab.
type Kind int

const (
	// KindMain is the canonical chat tab. It always exists and never closes.
	KindMain Kind = iota

	// KindDeepDive is a side conversation explaining one term.
	KindDeepDive

	// KindStatic renders fixed content (help, about).
	KindStatic

	// KindArtifact previews a fenced code block lifted from a message.
	KindArtifact
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindMain:
		return "main"
	case KindDeepDive:
		return "deepDive"
	case KindStatic:
		return "static"
	case KindArtifact:
		return "artifact"
	default:
		return "unknown"
	}
}

// =============================================================================
// TAB
// =============================================================================

// MainTabID is the fixed identifier of the canonical main tab.
const MainTabID = "main"

// Tab is one open unit of the UI. Deep-dive tabs own a transcript and the
// structured result of their session; static and artifact tabs carry fixed
// content.
type Tab struct {
	ID    string
	Kind  Kind
	Title string

	// Deep dive state
	Transcript   *model.Chat
	Loading      bool
	Searching    bool
	Preload      string
	Explanation  string
	RelatedTerms []string
	Sources      []stream.Source

	// Static / artifact content
	Content  string
	Language string
}

// Closable reports whether the tab may be closed.
func (t *Tab) Closable() bool {
	return t.Kind != KindMain
}

// clone returns a copy of the tab with its own slice storage. The transcript
// pointer is shared: the clone is the next live state, and the tab's session
// keeps streaming into the same transcript.
func (t *Tab) clone() *Tab {
	c := *t
	c.RelatedTerms = append([]string(nil), t.RelatedTerms...)
	c.Sources = append([]stream.Source(nil), t.Sources...)
	return &c
}

// snapshot returns a detached copy of the tab, transcript included.
func (t *Tab) snapshot() *Tab {
	c := t.clone()
	if t.Transcript != nil {
		c.Transcript = t.Transcript.Clone()
	}
	return c
}

// newTabID creates a unique tab ID.
func newTabID() string {
	return "tab_" + uuid.NewString()
}

// =============================================================================
// STATE
// =============================================================================

// State is one immutable snapshot of the registry. Mutating methods on the
// Registry produce a fresh State; observers only ever see whole snapshots.
type State struct {
	Tabs        []*Tab
	ActiveTabID string

	Chats        []*model.Chat
	ActiveChatID string
}

// ActiveTab returns the active tab, or nil.
func (s State) ActiveTab() *Tab {
	return s.TabByID(s.ActiveTabID)
}

// TabByID returns the tab with the given ID, or nil.
func (s State) TabByID(id string) *Tab {
	for _, t := range s.Tabs {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// TabByTitle returns the first tab whose title matches case-insensitively.
func (s State) TabByTitle(title string) *Tab {
	for _, t := range s.Tabs {
		if strings.EqualFold(t.Title, title) {
			return t
		}
	}
	return nil
}

// tabIndex returns the position of a tab in open order, or -1.
func (s State) tabIndex(id string) int {
	for i, t := range s.Tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ActiveChat returns the chat the main tab renders, or nil.
func (s State) ActiveChat() *model.Chat {
	for _, c := range s.Chats {
		if c.ID == s.ActiveChatID {
			return c
		}
	}
	return nil
}

// ChatByID returns the chat with the given ID, or nil.
func (s State) ChatByID(id string) *model.Chat {
	for _, c := range s.Chats {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// clone copies the state's own storage for the next live state. Tabs are
// cloned shallowly per tab; chats and transcripts are shared pointers, so a
// session keeps streaming into the same message across state replacements.
func (s State) clone() State {
	next := State{
		ActiveTabID:  s.ActiveTabID,
		ActiveChatID: s.ActiveChatID,
		Tabs:         make([]*Tab, len(s.Tabs)),
		Chats:        append([]*model.Chat(nil), s.Chats...),
	}
	for i, t := range s.Tabs {
		next.Tabs[i] = t.clone()
	}
	return next
}

// snapshot returns a fully detached copy for observers. Nothing in the copy
// aliases live chats or transcripts, so it can be read from another goroutine
// while sessions keep streaming.
func (s State) snapshot() State {
	next := State{
		ActiveTabID:  s.ActiveTabID,
		ActiveChatID: s.ActiveChatID,
		Tabs:         make([]*Tab, len(s.Tabs)),
		Chats:        make([]*model.Chat, len(s.Chats)),
	}
	for i, t := range s.Tabs {
		next.Tabs[i] = t.snapshot()
	}
	for i, c := range s.Chats {
		next.Chats[i] = c.Clone()
	}
	return next
}
