// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/jeranaias/learntab-tui/internal/stream"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a chat transcript. A streaming
// assistant message is "open": deltas accumulate in streamContent until the
// owning session reaches a terminal state, after which the message is never
// mutated again.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Streaming state (not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`

	// Structured metadata lifted from a completed assistant turn
	RelatedTerms []string        `json:"related_terms,omitempty"`
	Sources      []stream.Source `json:"sources,omitempty"`
	Usage        stream.Usage    `json:"usage,omitempty"`

	// Errored marks an assistant turn that ended in a transport failure.
	// Content then holds the fallback string plus any preserved partial text.
	Errored bool `json:"errored,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new open assistant message.
func NewAssistantMessage() *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendDelta appends streamed text to an open message.
func (m *Message) AppendDelta(text string) {
	if m.IsStreaming {
		m.streamContent.WriteString(text)
	}
}

// FinalizeStream closes an open message with its final text.
func (m *Message) FinalizeStream(finalText string) {
	if !m.IsStreaming {
		return
	}
	if finalText != "" {
		m.Content = finalText
	} else {
		m.Content = m.streamContent.String()
	}
	m.streamContent.Reset()
	m.IsStreaming = false
}

// FinalizeError closes an open message after a transport failure. The
// fallback string replaces or follows the partial text so the user never
// sees raw error detail.
func (m *Message) FinalizeError(fallback string) {
	if !m.IsStreaming {
		return
	}
	partial := m.streamContent.String()
	if partial != "" {
		m.Content = partial + "\n\n" + fallback
	} else {
		m.Content = fallback
	}
	m.streamContent.Reset()
	m.IsStreaming = false
	m.Errored = true
}

// GetDisplayContent returns the content to display (streaming or final).
// A detached copy of an open message keeps its streamed text in Content.
func (m *Message) GetDisplayContent() string {
	if m.IsStreaming && m.streamContent.Len() > 0 {
		return m.streamContent.String()
	}
	return m.Content
}

// Clone returns a detached copy of the message. An open message's streamed
// text is materialized into Content so the copy never touches the live
// builder again. The caller must synchronize with writers for the duration
// of the call.
func (m *Message) Clone() *Message {
	c := &Message{
		ID:           m.ID,
		Role:         m.Role,
		Timestamp:    m.Timestamp,
		Content:      m.Content,
		IsStreaming:  m.IsStreaming,
		RelatedTerms: append([]string(nil), m.RelatedTerms...),
		Sources:      append([]stream.Source(nil), m.Sources...),
		Usage:        m.Usage,
		Errored:      m.Errored,
	}
	if m.IsStreaming {
		c.Content = m.streamContent.String()
	}
	return c
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// EstimateTokens gives a rough estimate of token count.
// Uses the approximation of ~4 characters per token.
func (m *Message) EstimateTokens() int {
	content := m.GetDisplayContent()
	return (len(content) + 3) / 4
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
