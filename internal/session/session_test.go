// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/learntab-tui/internal/anthropic"
)

// stubStreamer serves a fixed wire-protocol body.
type stubStreamer struct {
	body string
	err  error
}

func (s *stubStreamer) OpenStream(ctx context.Context, req Request) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

// pipeStreamer hands out the read half of a pipe so tests control pacing.
type pipeStreamer struct {
	r *io.PipeReader
}

func (s *pipeStreamer) OpenStream(ctx context.Context, req Request) (io.ReadCloser, error) {
	return s.r, nil
}

// recorder collects observer updates.
type recorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recorder) notify(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) all() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Update, len(r.updates))
	copy(out, r.updates)
	return out
}

func waitStatus(t *testing.T, s *Session, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Status() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status = %s, want %s", s.Status(), want)
}

func userRequest(content string) Request {
	return Request{Messages: []anthropic.ChatMessage{anthropic.NewUserMessage(content)}}
}

func TestSessionCompletes(t *testing.T) {
	body := "data: {\"text\":\"Gravity bends spacetime.\\n\\n\"}\n\n" +
		"data: {\"text\":\"RELATED: Relativity, Black Holes\"}\n\n" +
		"data: {\"usage\":{\"input_tokens\":9,\"output_tokens\":14}}\n\n" +
		"data: [DONE]\n\n"

	rec := &recorder{}
	s := New(&stubStreamer{body: body}, rec.notify)

	if err := s.Start(context.Background(), userRequest("what is gravity")); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitStatus(t, s, StatusCompleted)

	updates := rec.all()
	if len(updates) == 0 {
		t.Fatal("no observer updates")
	}
	final := updates[len(updates)-1]

	if final.Status != StatusCompleted {
		t.Errorf("final.Status = %s", final.Status)
	}
	if final.Explanation != "Gravity bends spacetime." {
		t.Errorf("Explanation = %q", final.Explanation)
	}
	want := []string{"Relativity", "Black Holes"}
	if len(final.RelatedTerms) != 2 || final.RelatedTerms[0] != want[0] || final.RelatedTerms[1] != want[1] {
		t.Errorf("RelatedTerms = %v, want %v", final.RelatedTerms, want)
	}
	if final.Usage.TotalTokens() != 23 {
		t.Errorf("Usage.TotalTokens() = %d, want 23", final.Usage.TotalTokens())
	}
}

func TestSessionStartNonIdle(t *testing.T) {
	s := New(&stubStreamer{body: "data: [DONE]\n\n"}, nil)

	if err := s.Start(context.Background(), userRequest("q")); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}

	err := s.Start(context.Background(), userRequest("q"))
	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("second Start() error = %v, want *InvalidStateError", err)
	}

	waitStatus(t, s, StatusCompleted)
	if err := s.Start(context.Background(), userRequest("q")); err == nil {
		t.Error("Start() on completed session did not error")
	}
}

func TestSessionTransportErrorPreservesPartial(t *testing.T) {
	pr, pw := io.Pipe()
	rec := &recorder{}
	s := New(&pipeStreamer{r: pr}, rec.notify).WithFallback(FallbackDeepDive)

	if err := s.Start(context.Background(), userRequest("q")); err != nil {
		t.Fatal(err)
	}

	pw.Write([]byte("data: {\"text\":\"partial answer\"}\n\n"))
	pw.CloseWithError(errors.New("connection reset"))

	waitStatus(t, s, StatusErrored)

	updates := rec.all()
	final := updates[len(updates)-1]
	if final.Status != StatusErrored {
		t.Errorf("final.Status = %s", final.Status)
	}
	if final.Text != "partial answer" {
		t.Errorf("partial text = %q, want preserved", final.Text)
	}
	if final.Explanation != FallbackDeepDive {
		t.Errorf("Explanation = %q, want fixed fallback", final.Explanation)
	}
}

func TestSessionOpenStreamError(t *testing.T) {
	rec := &recorder{}
	s := New(&stubStreamer{err: errors.New("gateway returned 502")}, rec.notify)

	if err := s.Start(context.Background(), userRequest("q")); err != nil {
		t.Fatal(err)
	}
	waitStatus(t, s, StatusErrored)

	updates := rec.all()
	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	if updates[0].Explanation != FallbackMainChat {
		t.Errorf("Explanation = %q", updates[0].Explanation)
	}
}

func TestSessionCancelStopsNotifications(t *testing.T) {
	pr, pw := io.Pipe()
	rec := &recorder{}
	s := New(&pipeStreamer{r: pr}, rec.notify)

	if err := s.Start(context.Background(), userRequest("q")); err != nil {
		t.Fatal(err)
	}

	pw.Write([]byte("data: {\"text\":\"before cancel\"}\n\n"))

	deadline := time.Now().Add(2 * time.Second)
	for len(rec.all()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	seen := len(rec.all())
	if seen == 0 {
		t.Fatal("no update before cancel")
	}

	s.Cancel()
	if s.Status() != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", s.Status())
	}

	// Frames arriving after cancel must be invisible.
	pw.Write([]byte("data: {\"text\":\"zombie\"}\n\ndata: [DONE]\n\n"))
	pw.Close()
	time.Sleep(50 * time.Millisecond)

	if got := len(rec.all()); got != seen {
		t.Errorf("updates after cancel: %d -> %d", seen, got)
	}
	for _, u := range rec.all() {
		if strings.Contains(u.Text, "zombie") {
			t.Error("post-cancel text leaked to observer")
		}
	}
}

func TestSessionCancelIdempotent(t *testing.T) {
	pr, _ := io.Pipe()
	s := New(&pipeStreamer{r: pr}, nil)

	if err := s.Start(context.Background(), userRequest("q")); err != nil {
		t.Fatal(err)
	}

	s.Cancel()
	s.Cancel()
	if s.Status() != StatusCancelled {
		t.Errorf("status = %s", s.Status())
	}
}

func TestSessionCancelAfterCompletionNoOp(t *testing.T) {
	s := New(&stubStreamer{body: "data: {\"text\":\"x\"}\n\ndata: [DONE]\n\n"}, nil)

	if err := s.Start(context.Background(), userRequest("q")); err != nil {
		t.Fatal(err)
	}
	waitStatus(t, s, StatusCompleted)

	s.Cancel()
	if s.Status() != StatusCompleted {
		t.Errorf("status = %s, want completed to stay absorbing", s.Status())
	}
}

func TestSessionLiveChipsInUpdates(t *testing.T) {
	body := "data: {\"text\":\"see [[osmosis::water movement]] here\"}\n\n" +
		"data: [DONE]\n\n"

	rec := &recorder{}
	s := New(&stubStreamer{body: body}, rec.notify)
	if err := s.Start(context.Background(), userRequest("q")); err != nil {
		t.Fatal(err)
	}
	waitStatus(t, s, StatusCompleted)

	final := rec.all()[len(rec.all())-1]
	var found bool
	for _, seg := range final.Segments {
		if seg.Chip != nil && seg.Chip.Term == "osmosis" {
			found = true
		}
	}
	if !found {
		t.Errorf("chip not extracted from segments: %+v", final.Segments)
	}
}
