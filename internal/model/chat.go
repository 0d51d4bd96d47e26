// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/jeranaias/learntab-tui/internal/anthropic"
	"github.com/jeranaias/learntab-tui/internal/util"
)

// TitleMaxChars is the display length a derived chat title is truncated to.
const TitleMaxChars = 50

// MaxMessages is the maximum number of messages kept in a transcript.
// Old messages are pruned to prevent unbounded memory growth.
const MaxMessages = 1000

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat holds one transcript plus metadata. The transcript invariant: at most
// one message is open (actively streamed into) at a time.
type Chat struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Transcript, insertion order = conversation order
	Messages []*Message `json:"messages"`

	// Model configuration
	Model string `json:"model"`
}

// NewChat creates a new chat with a generated ID.
func NewChat() *Chat {
	return &Chat{
		ID:        generateChatID(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// NewChatWithModel creates a new chat pinned to a specific model.
func NewChatWithModel(model string) *Chat {
	c := NewChat()
	c.Model = model
	return c
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the transcript.
func (c *Chat) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.pruneOldMessages()
}

// AddUserMessage creates and appends a user message.
func (c *Chat) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and appends an open assistant message. Any
// message still open is finalized first, preserving the single-open-message
// invariant.
func (c *Chat) AddAssistantMessage() *Message {
	if open := c.OpenMessage(); open != nil {
		open.FinalizeStream("")
	}
	msg := NewAssistantMessage()
	c.AddMessage(msg)
	return msg
}

// OpenMessage returns the transcript's open message, or nil.
func (c *Chat) OpenMessage() *Message {
	last := c.LastMessage()
	if last != nil && last.IsStreaming {
		return last
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Chat) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// FirstUserMessage returns the earliest user message.
func (c *Chat) FirstUserMessage() *Message {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (c *Chat) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Chat) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// GATEWAY CONVERSION
// =============================================================================

// ToChatMessages converts the transcript to the gateway request format.
// Open and empty messages are skipped.
func (c *Chat) ToChatMessages() []anthropic.ChatMessage {
	messages := make([]anthropic.ChatMessage, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.IsStreaming || msg.IsEmpty() || msg.Errored {
			continue
		}
		messages = append(messages, anthropic.ChatMessage{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}
	return messages
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// DeriveTitle sets the title from the first user message if not already set:
// the message's first line, cut to TitleMaxChars with a trailing ellipsis
// marker when truncation occurred.
func (c *Chat) DeriveTitle() {
	if c.Title != "" {
		return
	}
	first := c.FirstUserMessage()
	if first == nil {
		return
	}
	c.Title = util.TruncateTail(util.FirstLine(first.Content), TitleMaxChars)
}

// SetTitle manually sets the chat title.
func (c *Chat) SetTitle(title string) {
	c.Title = title
	c.UpdatedAt = time.Now()
}

// GetTitle returns the chat title or a default.
func (c *Chat) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Chat"
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateChatID creates a unique chat ID.
func generateChatID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "chat_" + hex.EncodeToString(bytes)
}

// Clone creates a deep copy of the chat. Every message is detached, so the
// copy can be read without synchronizing with a session still streaming into
// the original.
func (c *Chat) Clone() *Chat {
	clone := &Chat{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Model:     c.Model,
		Messages:  make([]*Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		clone.Messages[i] = msg.Clone()
	}
	return clone
}

// pruneOldMessages drops the oldest messages once the transcript exceeds
// MaxMessages.
func (c *Chat) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	c.Messages = c.Messages[len(c.Messages)-MaxMessages:]
}
