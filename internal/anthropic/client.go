// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package anthropic

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/learntab-tui/internal/stream"
)

// Configuration constants for the Anthropic API.
const (
	// DefaultBaseURL is the base URL for the Messages API.
	DefaultBaseURL = "https://api.anthropic.com/v1"

	// apiVersion is the pinned anthropic-version header value.
	apiVersion = "2023-06-01"

	// DefaultTimeout bounds non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// MaxErrorBodySize caps how much of an upstream error body is retained.
	MaxErrorBodySize = 64 * 1024
)

// sharedStreamingClient is used for streaming requests. No client timeout;
// lifetime is controlled by the request context.
// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// ErrNotConfigured indicates the API key is not set.
var ErrNotConfigured = errors.New("anthropic API key not configured")

// APIError is a non-2xx response from the Messages API. The upstream status
// and body are preserved so the gateway can pass them through diagnostically.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic error (HTTP %d): %s", e.Status, e.Body)
}

// Client communicates with the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client with the given API key. An empty key is
// allowed; streaming calls then fail with ErrNotConfigured.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		httpClient: sharedStreamingClient,
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// KeyFingerprint returns a short SHA-256 fingerprint of the API key for
// logging. The key itself is never logged.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// setHeaders sets the required Messages API headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
}

// StreamMessages issues a streaming Messages request and invokes emit for
// each translated event, in upstream order. It returns nil after the
// upstream message_stop (emit sees a DoneEvent last), the emit error if emit
// fails, or an *APIError / transport error otherwise.
func (c *Client) StreamMessages(ctx context.Context, msgReq *MessagesRequest, emit func(stream.Event) error) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	bodyBytes, err := json.Marshal(msgReq)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	return c.readEvents(resp.Body, emit)
}

// upstreamEvent is the superset of Messages API stream payloads learntab
// consumes. Everything else is skipped.
type upstreamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Usage *usagePayload `json:"usage"`
	} `json:"message"`
	ContentBlock *struct {
		Type    string `json:"type"`
		Content []struct {
			Type  string `json:"type"`
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"content"`
	} `json:"content_block"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Usage *usagePayload `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type usagePayload struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

func (u *usagePayload) toUsage() stream.Usage {
	return stream.Usage{
		InputTokens:              u.InputTokens,
		OutputTokens:             u.OutputTokens,
		CacheCreationInputTokens: u.CacheCreationInputTokens,
		CacheReadInputTokens:     u.CacheReadInputTokens,
	}
}

// readEvents walks the upstream SSE body and translates each recognized
// payload. Malformed data lines are skipped: one bad frame must not kill the
// stream.
func (c *Client) readEvents(body io.Reader, emit func(stream.Event) error) error {
	dec := newSSEScanner(body)
	for {
		data, err := dec.nextData()
		if err == io.EOF {
			// Upstream closed without message_stop; implicit end.
			return emit(stream.DoneEvent{})
		}
		if err != nil {
			return fmt.Errorf("upstream read failed: %w", err)
		}

		var ev upstreamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}

		var out stream.Event
		switch ev.Type {
		case "message_start":
			if ev.Message != nil && ev.Message.Usage != nil {
				out = stream.UsageEvent{Usage: ev.Message.Usage.toUsage()}
			}
		case "content_block_start":
			if ev.ContentBlock == nil {
				continue
			}
			switch ev.ContentBlock.Type {
			case "server_tool_use":
				out = stream.SearchingEvent{}
			case "web_search_tool_result":
				var sources []stream.Source
				for _, r := range ev.ContentBlock.Content {
					if r.Type == "web_search_result" {
						sources = append(sources, stream.Source{Title: r.Title, URL: r.URL})
					}
				}
				if len(sources) > 0 {
					out = stream.SourcesEvent{Sources: sources}
				}
			}
		case "content_block_delta":
			if ev.Delta != nil && ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				out = stream.TextDelta{Text: ev.Delta.Text}
			}
		case "message_delta":
			if ev.Usage != nil {
				out = stream.UsageEvent{Usage: ev.Usage.toUsage()}
			}
		case "message_stop":
			return emit(stream.DoneEvent{})
		case "error":
			msg := "upstream stream error"
			if ev.Error != nil {
				msg = ev.Error.Message
			}
			return fmt.Errorf("upstream stream error: %s", msg)
		}

		if out != nil {
			if err := emit(out); err != nil {
				return err
			}
		}
	}
}
