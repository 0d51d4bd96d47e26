// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/learntab-tui/internal/anthropic"
	"github.com/jeranaias/learntab-tui/internal/extract"
	"github.com/jeranaias/learntab-tui/internal/stream"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the lifecycle state of a session.
type Status int

const (
	StatusIdle Status = iota
	StatusStreaming
	StatusCompleted
	StatusErrored
	StatusCancelled
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStreaming:
		return "streaming"
	case StatusCompleted:
		return "completed"
	case StatusErrored:
		return "errored"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is absorbing.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusErrored || s == StatusCancelled
}

// InvalidStateError reports an operation applied in the wrong lifecycle
// state, a programming-contract violation.
type InvalidStateError struct {
	Op     string
	Status Status
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("session: %s called in state %s", e.Op, e.Status)
}

// =============================================================================
// FALLBACK MESSAGES
// =============================================================================

// User-facing fallback strings shown in place of a failed assistant turn.
// Raw error detail never reaches the transcript.
const (
	FallbackMainChat = "Sorry, I couldn't connect to the server."
	FallbackDeepDive = "We encountered an error connecting to the assistant."
)

// notifyInterval bounds how often streaming snapshots reach the observer,
// independent of how finely the upstream frames its output.
const notifyInterval = 33 * time.Millisecond

// =============================================================================
// REQUEST AND UPDATE
// =============================================================================

// Request describes one conversation to stream.
type Request struct {
	Messages  []anthropic.ChatMessage
	System    string
	Model     string
	WebSearch bool
}

// Update is an immutable snapshot handed to the observer. Text and Segments
// grow while streaming; Explanation and RelatedTerms are set only by the
// final completed snapshot.
type Update struct {
	Status       Status
	Text         string
	Segments     []extract.Segment
	Searching    bool
	Explanation  string
	RelatedTerms []string
	Sources      []stream.Source
	Usage        stream.Usage
}

// =============================================================================
// SESSION
// =============================================================================

// Session drives one streaming request against the gateway.
type Session struct {
	mu sync.Mutex

	status    Status
	acc       *stream.Accumulator
	searching bool

	// detached stops all observer notifications after Cancel.
	detached bool

	cancelFn context.CancelFunc

	streamer Streamer
	notify   func(Update)
	fallback string

	lastNotify time.Time
}

// New creates an idle session. notify may be nil.
func New(streamer Streamer, notify func(Update)) *Session {
	return &Session{
		status:   StatusIdle,
		acc:      stream.NewAccumulator(),
		streamer: streamer,
		notify:   notify,
		fallback: FallbackMainChat,
	}
}

// WithFallback sets the user-facing message shown on transport failure.
func (s *Session) WithFallback(msg string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = msg
	return s
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns the current accumulated state.
func (s *Session) Snapshot() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked builds an Update; callers hold s.mu.
func (s *Session) snapshotLocked() Update {
	text := s.acc.Text()
	return Update{
		Status:    s.status,
		Text:      text,
		Segments:  extract.Segments(text),
		Searching: s.searching,
		Sources:   s.acc.Sources(),
		Usage:     s.acc.Usage(),
	}
}

// Start transitions idle -> streaming and begins consuming the stream. It
// returns an InvalidStateError if the session already left idle. The caller
// is not blocked; progress arrives through the observer.
func (s *Session) Start(ctx context.Context, req Request) error {
	s.mu.Lock()
	if s.status != StatusIdle {
		st := s.status
		s.mu.Unlock()
		return &InvalidStateError{Op: "Start", Status: st}
	}
	s.status = StatusStreaming
	ctx, s.cancelFn = context.WithCancel(ctx)
	s.mu.Unlock()

	go s.run(ctx, req)
	return nil
}

// Cancel detaches the session from its byte stream. Idempotent; a no-op
// after natural completion. No observer notification follows a cancel.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusStreaming {
		return
	}
	s.status = StatusCancelled
	s.detached = true
	if s.cancelFn != nil {
		s.cancelFn()
	}
}

// =============================================================================
// STREAM CONSUMPTION
// =============================================================================

// run opens the gateway stream and applies events until a terminal state.
func (s *Session) run(ctx context.Context, req Request) {
	body, err := s.streamer.OpenStream(ctx, req)
	if err != nil {
		s.fail(err)
		return
	}
	defer body.Close()

	dec := stream.NewDecoder(body)
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			s.fail(err)
			return
		}
		if done := s.apply(ev); done {
			return
		}
	}
}

// apply folds one event into session state and notifies the observer.
// Returns true once a terminal state is reached.
func (s *Session) apply(ev stream.Event) bool {
	s.mu.Lock()
	if s.detached || s.status != StatusStreaming {
		s.mu.Unlock()
		return true
	}

	s.acc.Apply(ev)

	switch ev.(type) {
	case stream.TextDelta:
		s.searching = false
		if time.Since(s.lastNotify) < notifyInterval {
			s.mu.Unlock()
			return false
		}
		s.lastNotify = time.Now()
	case stream.SearchingEvent:
		s.searching = true
	case stream.DoneEvent:
		s.status = StatusCompleted
		update := s.completedLocked()
		notify := s.notify
		s.mu.Unlock()
		if notify != nil {
			notify(update)
		}
		return true
	}

	update := s.snapshotLocked()
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(update)
	}
	return false
}

// completedLocked builds the final snapshot, running the finalize-phase
// extractor over the full text.
func (s *Session) completedLocked() Update {
	result := extract.Finalize(s.acc.Text())
	return Update{
		Status:       StatusCompleted,
		Text:         s.acc.Text(),
		Segments:     extract.Segments(result.Explanation),
		Explanation:  result.Explanation,
		RelatedTerms: result.RelatedTerms,
		Sources:      s.acc.Sources(),
		Usage:        s.acc.Usage(),
	}
}

// fail moves the session to errored, preserving accumulated text. The
// observer receives the fixed fallback message, never the raw error.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.detached || s.status != StatusStreaming {
		s.mu.Unlock()
		return
	}
	log.Printf("SESSION_ERROR | error=%v partial_len=%d", err, len(s.acc.Text()))

	s.status = StatusErrored
	update := s.snapshotLocked()
	update.Explanation = s.fallback
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(update)
	}
}
