// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jeranaias/learntab-tui/internal/anthropic"
	"github.com/jeranaias/learntab-tui/internal/stream"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the gateway.
	DefaultPort = 8787

	// MaxRequestBodySize caps request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxMessageCount is the maximum number of messages in a request.
	MaxMessageCount = 100

	// MaxMessageLength is the maximum length of a single message.
	MaxMessageLength = 100000

	// Version is the gateway version.
	Version = "0.1.0"
)

// validRoles is the set of acceptable conversation roles.
var validRoles = map[string]bool{
	"user":      true,
	"assistant": true,
}

// validateMessages enforces the role whitelist.
func validateMessages(messages []anthropic.ChatMessage) error {
	for i, msg := range messages {
		if !validRoles[msg.Role] {
			return fmt.Errorf("invalid role %q at message %d: must be user or assistant", msg.Role, i)
		}
	}
	return nil
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the learntab proxy gateway.
type Server struct {
	port   int
	router *http.ServeMux
	server *http.Server

	upstream *anthropic.Client
	tools    *ToolsProxy
}

// NewServer creates a gateway on the given port (0 selects the default)
// backed by the given upstream client.
func NewServer(port int, upstream *anthropic.Client) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		port:     port,
		router:   http.NewServeMux(),
		upstream: upstream,
	}

	s.setupRoutes()
	return s
}

// WithToolsProxy sets the search-tool proxy backend.
func (s *Server) WithToolsProxy(tp *ToolsProxy) *Server {
	s.tools = tp
	return s
}

// Port returns the gateway port.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the fully wired handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		CORSMiddleware(DefaultCORSConfig()),
		LoggingMiddleware(log.Default()),
		RateLimitMiddleware(NewIPRateLimiter(DefaultRequestsPerSecond, DefaultBurst)),
	)(s.router)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/chat", s.handleChat)
	s.router.HandleFunc("POST /api/tools", s.handleTools)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages  []anthropic.ChatMessage `json:"messages"`
	System    string                  `json:"system,omitempty"`
	Model     string                  `json:"model,omitempty"`
	WebSearch bool                    `json:"webSearch,omitempty"`
}

// handleChat relays a conversation upstream and streams the reply back in
// the wire protocol. Missing credential is a 500; upstream failure before
// any output is a 502 with the upstream status and body attached.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("CHAT_BAD_REQUEST | error=%v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if len(req.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "Request must contain at least one message")
		return
	}
	if len(req.Messages) > MaxMessageCount {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many messages: maximum is %d", MaxMessageCount))
		return
	}
	if err := validateMessages(req.Messages); err != nil {
		log.Printf("CHAT_INVALID_ROLE | error=%v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid message format. Roles must be user or assistant")
		return
	}
	for i, msg := range req.Messages {
		if len(msg.Content) > MaxMessageLength {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Message %d exceeds maximum length of %d", i, MaxMessageLength))
			return
		}
	}

	if s.upstream == nil || !s.upstream.IsConfigured() {
		log.Printf("CHAT_NOT_CONFIGURED | key=%s", s.keyFingerprint())
		s.writeError(w, http.StatusInternalServerError, "API key not configured")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	msgReq := anthropic.NewMessagesRequest(req.Model, req.System, req.Messages, req.WebSearch)

	// Headers are written lazily on the first upstream event so that an
	// upstream refusal can still surface as a 502.
	sw := &streamWriter{w: w, flusher: flusher}

	start := time.Now()
	err := s.upstream.StreamMessages(r.Context(), msgReq, sw.writeEvent)
	if err != nil {
		if sw.started {
			// Already streaming; the status line is spent. Log and stop.
			log.Printf("CHAT_STREAM_ABORT | error=%v elapsed=%.3fs", err, time.Since(start).Seconds())
			return
		}
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			log.Printf("CHAT_UPSTREAM_ERROR | status=%d", apiErr.Status)
			s.writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":   "Upstream request failed",
				"status":  apiErr.Status,
				"details": apiErr.Body,
			})
			return
		}
		log.Printf("CHAT_TRANSPORT_ERROR | error=%v", err)
		s.writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":   "Upstream request failed",
			"status":  0,
			"details": "transport failure",
		})
		return
	}

	log.Printf("CHAT_COMPLETE | elapsed=%.3fs", time.Since(start).Seconds())
}

// streamWriter re-frames translated upstream events as wire protocol frames.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

// writeEvent emits one frame. The SSE headers go out with the first event.
func (sw *streamWriter) writeEvent(ev stream.Event) error {
	if !sw.started {
		sw.w.Header().Set("Content-Type", "text/event-stream")
		sw.w.Header().Set("Cache-Control", "no-cache")
		sw.w.Header().Set("Connection", "keep-alive")
		sw.w.Header().Set("X-Accel-Buffering", "no")
		sw.w.WriteHeader(http.StatusOK)
		sw.started = true
	}

	var payload interface{}
	switch e := ev.(type) {
	case stream.TextDelta:
		payload = map[string]string{"text": e.Text}
	case stream.SearchingEvent:
		payload = map[string]bool{"searching": true}
	case stream.SourcesEvent:
		payload = map[string]interface{}{"sources": e.Sources}
	case stream.UsageEvent:
		payload = map[string]interface{}{"usage": e.Usage}
	case stream.DoneEvent:
		if _, err := fmt.Fprint(sw.w, "data: [DONE]\n\n"); err != nil {
			return err
		}
		sw.flusher.Flush()
		return nil
	default:
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", data); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}

// ============================================================================
// HEALTH
// ============================================================================

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"version":    Version,
		"configured": s.upstream != nil && s.upstream.IsConfigured(),
	})
}

// handleTools handles POST /api/tools.
func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if s.tools == nil {
		s.writeError(w, http.StatusInternalServerError, "Tool proxy not configured")
		return
	}
	s.tools.ServeHTTP(w, r)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming responses have no fixed deadline
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("GATEWAY_START | addr=%s version=%s key=%s", addr, Version, s.keyFingerprint())
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Printf("GATEWAY_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

func (s *Server) keyFingerprint() string {
	if s.upstream == nil {
		return "none"
	}
	return s.upstream.KeyFingerprint()
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}
