// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package anthropic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/jeranaias/learntab-tui/internal/stream"
)

const upstreamFixture = `event: message_start
data: {"type":"message_start","message":{"usage":{"input_tokens":25,"cache_read_input_tokens":10}}}

event: content_block_start
data: {"type":"content_block_start","index":0,"content_block":{"type":"server_tool_use"}}

event: content_block_start
data: {"type":"content_block_start","index":1,"content_block":{"type":"web_search_tool_result","content":[{"type":"web_search_result","title":"Mitosis","url":"https://example.org/mitosis"}]}}

event: content_block_delta
data: {"type":"content_block_delta","index":2,"delta":{"type":"text_delta","text":"Cells divide"}}

event: content_block_delta
data: {"type":"content_block_delta","index":2,"delta":{"type":"text_delta","text":" in phases."}}

event: message_delta
data: {"type":"message_delta","usage":{"output_tokens":12}}

event: message_stop
data: {"type":"message_stop"}
`

func collectEvents(t *testing.T, c *Client, req *MessagesRequest) ([]stream.Event, error) {
	t.Helper()
	var events []stream.Event
	err := c.StreamMessages(context.Background(), req, func(ev stream.Event) error {
		events = append(events, ev)
		return nil
	})
	return events, err
}

func TestStreamMessagesTranslation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("anthropic-version"); got != apiVersion {
			t.Errorf("anthropic-version = %q, want %q", got, apiVersion)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(upstreamFixture))
	}))
	defer srv.Close()

	c := NewClient("test-key").WithBaseURL(srv.URL)
	req := NewMessagesRequest("", "", []ChatMessage{NewUserMessage("explain mitosis")}, false)

	events, err := collectEvents(t, c, req)
	if err != nil {
		t.Fatalf("StreamMessages() error = %v", err)
	}

	want := []stream.Event{
		stream.UsageEvent{Usage: stream.Usage{InputTokens: 25, CacheReadInputTokens: 10}},
		stream.SearchingEvent{},
		stream.SourcesEvent{Sources: []stream.Source{{Title: "Mitosis", URL: "https://example.org/mitosis"}}},
		stream.TextDelta{Text: "Cells divide"},
		stream.TextDelta{Text: " in phases."},
		stream.UsageEvent{Usage: stream.Usage{OutputTokens: 12}},
		stream.DoneEvent{},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %#v, want %#v", events, want)
	}
}

func TestStreamMessagesImplicitEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Body ends without message_stop.
		w.Write([]byte("data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"hi\"}}\n\n"))
	}))
	defer srv.Close()

	c := NewClient("test-key").WithBaseURL(srv.URL)
	events, err := collectEvents(t, c, NewMessagesRequest("", "", nil, false))
	if err != nil {
		t.Fatalf("StreamMessages() error = %v", err)
	}

	want := []stream.Event{stream.TextDelta{Text: "hi"}, stream.DoneEvent{}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %#v, want %#v", events, want)
	}
}

func TestStreamMessagesSkipsMalformedFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {broken\n\n" +
			"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"ok\"}}\n\n" +
			"data: {\"type\":\"message_stop\"}\n\n"))
	}))
	defer srv.Close()

	c := NewClient("test-key").WithBaseURL(srv.URL)
	events, err := collectEvents(t, c, NewMessagesRequest("", "", nil, false))
	if err != nil {
		t.Fatalf("StreamMessages() error = %v", err)
	}

	want := []stream.Event{stream.TextDelta{Text: "ok"}, stream.DoneEvent{}}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %#v, want %#v", events, want)
	}
}

func TestStreamMessagesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"type":"overloaded_error"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key").WithBaseURL(srv.URL)
	err := c.StreamMessages(context.Background(), NewMessagesRequest("", "", nil, false), func(stream.Event) error {
		t.Fatal("emit called on upstream error")
		return nil
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", apiErr.Status)
	}
}

func TestStreamMessagesNotConfigured(t *testing.T) {
	c := NewClient("   ")
	err := c.StreamMessages(context.Background(), NewMessagesRequest("", "", nil, false), nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestNewMessagesRequest(t *testing.T) {
	req := NewMessagesRequest("haiku", "You are a tutor.", []ChatMessage{NewUserMessage("hi")}, true)

	if req.Model != SideModel {
		t.Errorf("Model = %q, want %q", req.Model, SideModel)
	}
	if !req.Stream {
		t.Error("Stream = false, want true")
	}
	if len(req.System) != 1 || req.System[0].CacheControl == nil || req.System[0].CacheControl.Type != "ephemeral" {
		t.Errorf("System = %+v, want one ephemeral cacheable block", req.System)
	}
	if len(req.Tools) != 1 || req.Tools[0].Name != "web_search" || req.Tools[0].MaxUses != webSearchMaxUses {
		t.Errorf("Tools = %+v, want bounded web_search", req.Tools)
	}

	plain := NewMessagesRequest("", "", nil, false)
	if plain.Model != DefaultModel {
		t.Errorf("Model = %q, want default", plain.Model)
	}
	if plain.System != nil || plain.Tools != nil {
		t.Errorf("plain request carries system/tools: %+v", plain)
	}
}
