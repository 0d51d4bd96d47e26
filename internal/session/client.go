// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Streamer opens the gateway's byte stream for one request. The session owns
// the returned body and closes it when the stream ends or is cancelled.
type Streamer interface {
	OpenStream(ctx context.Context, req Request) (io.ReadCloser, error)
}

// maxGatewayErrorBody caps how much of a gateway error body is read.
const maxGatewayErrorBody = 64 * 1024

// GatewayClient is the HTTP Streamer talking to the learntab gateway.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGatewayClient creates a client for the gateway at baseURL. Streaming
// responses carry no client timeout; lifetime is context-controlled.
func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// OpenStream POSTs the conversation to /api/chat and returns the SSE body.
func (c *GatewayClient) OpenStream(ctx context.Context, req Request) (io.ReadCloser, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"messages":  req.Messages,
		"system":    req.System,
		"model":     req.Model,
		"webSearch": req.WebSearch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway unreachable: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxGatewayErrorBody))
		resp.Body.Close()
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, body)
	}

	return resp.Body, nil
}
