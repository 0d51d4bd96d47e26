// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestDeriveTitleTruncation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "long message truncated with ellipsis",
			content: strings.Repeat("a", 80),
			want:    strings.Repeat("a", 50) + "...",
		},
		{
			name:    "short message kept whole",
			content: strings.Repeat("b", 30),
			want:    strings.Repeat("b", 30),
		},
		{
			name:    "only first line used",
			content: "What is entropy?\nAnd also enthalpy?",
			want:    "What is entropy?",
		},
		{
			name:    "exactly at limit no ellipsis",
			content: strings.Repeat("c", 50),
			want:    strings.Repeat("c", 50),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChat()
			c.AddUserMessage(tt.content)
			c.DeriveTitle()
			if c.Title != tt.want {
				t.Errorf("Title = %q, want %q", c.Title, tt.want)
			}
		})
	}
}

func TestDeriveTitleIdempotent(t *testing.T) {
	c := NewChat()
	c.AddUserMessage("first question")
	c.DeriveTitle()

	c.AddUserMessage("second question")
	c.DeriveTitle()

	if c.Title != "first question" {
		t.Errorf("Title = %q, want title from first user message", c.Title)
	}
}

func TestSingleOpenMessageInvariant(t *testing.T) {
	c := NewChat()
	c.AddUserMessage("q1")
	first := c.AddAssistantMessage()
	first.AppendDelta("partial")

	// Opening a second assistant message closes the first.
	second := c.AddAssistantMessage()

	if first.IsStreaming {
		t.Error("first message still open after second was added")
	}
	if first.Content != "partial" {
		t.Errorf("first.Content = %q, want accumulated text", first.Content)
	}
	if c.OpenMessage() != second {
		t.Error("OpenMessage() != newest assistant message")
	}
}

func TestFinalizeStream(t *testing.T) {
	m := NewAssistantMessage()
	m.AppendDelta("Hello ")
	m.AppendDelta("world")

	m.FinalizeStream("Hello world, trimmed")

	if m.IsStreaming {
		t.Error("still streaming after finalize")
	}
	if m.Content != "Hello world, trimmed" {
		t.Errorf("Content = %q", m.Content)
	}

	// Terminal messages are never mutated again.
	m.AppendDelta("zombie")
	m.FinalizeStream("other")
	if m.Content != "Hello world, trimmed" {
		t.Errorf("Content mutated after terminal state: %q", m.Content)
	}
}

func TestFinalizeErrorPreservesPartialText(t *testing.T) {
	m := NewAssistantMessage()
	m.AppendDelta("The answer begins")

	m.FinalizeError("We encountered an error connecting to the assistant.")

	if !m.Errored {
		t.Error("Errored = false")
	}
	if !strings.Contains(m.Content, "The answer begins") {
		t.Errorf("partial text lost: %q", m.Content)
	}
	if !strings.Contains(m.Content, "We encountered an error") {
		t.Errorf("fallback missing: %q", m.Content)
	}
}

func TestToChatMessagesSkipsOpenAndErrored(t *testing.T) {
	c := NewChat()
	c.AddUserMessage("q1")
	a1 := c.AddAssistantMessage()
	a1.AppendDelta("answer one")
	a1.FinalizeStream("")

	c.AddUserMessage("q2")
	a2 := c.AddAssistantMessage()
	a2.FinalizeError("fallback")

	c.AddUserMessage("q3")
	c.AddAssistantMessage() // still open

	msgs := c.ToChatMessages()

	want := []struct{ role, content string }{
		{"user", "q1"},
		{"assistant", "answer one"},
		{"user", "q2"},
		{"user", "q3"},
	}
	if len(msgs) != len(want) {
		t.Fatalf("len = %d, want %d (%+v)", len(msgs), len(want), msgs)
	}
	for i, w := range want {
		if msgs[i].Role != w.role || msgs[i].Content != w.content {
			t.Errorf("msgs[%d] = %+v, want %+v", i, msgs[i], w)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := NewChat()
	c.AddUserMessage("original")
	clone := c.Clone()

	clone.Messages[0].Content = "mutated"
	if c.Messages[0].Content != "original" {
		t.Error("clone shares message storage with original")
	}
}

func TestCloneMaterializesOpenStream(t *testing.T) {
	c := NewChat()
	c.AddUserMessage("q")
	open := c.AddAssistantMessage()
	open.AppendDelta("Hello ")

	clone := c.Clone()
	copied := clone.Messages[1]
	if !copied.IsStreaming {
		t.Error("clone dropped streaming state")
	}
	if got := copied.GetDisplayContent(); got != "Hello " {
		t.Errorf("clone display content = %q, want streamed text", got)
	}

	// Deltas after the clone stay with the original.
	open.AppendDelta("world")
	if got := copied.GetDisplayContent(); got != "Hello " {
		t.Errorf("clone received later delta: %q", got)
	}
	if got := open.GetDisplayContent(); got != "Hello world" {
		t.Errorf("original display content = %q", got)
	}
}
