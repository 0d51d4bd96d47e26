// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jeranaias/learntab-tui/internal/anthropic"
)

// newUpstreamStub serves a canned Messages API stream.
func newUpstreamStub(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(body))
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(body))
	}))
}

func chatBody(t *testing.T, v interface{}) *strings.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return strings.NewReader(string(data))
}

func TestHandleChatStreams(t *testing.T) {
	upstream := newUpstreamStub(t, "data: {\"type\":\"message_start\",\"message\":{\"usage\":{\"input_tokens\":7}}}\n\n"+
		"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"Hello\"}}\n\n"+
		"data: {\"type\":\"message_delta\",\"usage\":{\"output_tokens\":2}}\n\n"+
		"data: {\"type\":\"message_stop\"}\n\n", http.StatusOK)
	defer upstream.Close()

	s := NewServer(0, anthropic.NewClient("test-key").WithBaseURL(upstream.URL))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", chatBody(t, ChatRequest{
		Messages: []anthropic.ChatMessage{anthropic.NewUserMessage("hi")},
	}))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := rec.Header().Get("Connection"); got != "keep-alive" {
		t.Errorf("Connection = %q", got)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`data: {"usage":{"input_tokens":7}}`,
		`data: {"text":"Hello"}`,
		"data: [DONE]\n\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestHandleChatMethodNotAllowed(t *testing.T) {
	s := NewServer(0, anthropic.NewClient("test-key"))

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleChatMissingCredential(t *testing.T) {
	s := NewServer(0, anthropic.NewClient(""))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", chatBody(t, ChatRequest{
		Messages: []anthropic.ChatMessage{anthropic.NewUserMessage("hi")},
	}))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleChatUpstreamFailure(t *testing.T) {
	upstream := newUpstreamStub(t, `{"error":{"type":"overloaded_error"}}`, http.StatusServiceUnavailable)
	defer upstream.Close()

	s := NewServer(0, anthropic.NewClient("test-key").WithBaseURL(upstream.URL))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", chatBody(t, ChatRequest{
		Messages: []anthropic.ChatMessage{anthropic.NewUserMessage("hi")},
	}))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var resp struct {
		Error   string `json:"error"`
		Status  int    `json:"status"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != http.StatusServiceUnavailable {
		t.Errorf("status field = %d, want 503", resp.Status)
	}
	if resp.Error == "" || resp.Details == "" {
		t.Errorf("response missing error/details: %+v", resp)
	}
}

func TestHandleChatValidation(t *testing.T) {
	s := NewServer(0, anthropic.NewClient("test-key"))

	tests := []struct {
		name string
		body string
	}{
		{"empty messages", `{"messages":[]}`},
		{"bad role", `{"messages":[{"role":"system","content":"x"}]}`},
		{"malformed json", `{nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	s := NewServer(0, anthropic.NewClient("test-key"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status     string `json:"status"`
		Configured bool   `json:"configured"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || !resp.Configured {
		t.Errorf("health = %+v", resp)
	}
}
