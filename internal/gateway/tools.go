// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sort"
	"time"
)

// ============================================================================
// TOOLS PROXY
// ============================================================================

const (
	// toolsTimeout bounds one upstream tool invocation.
	toolsTimeout = 30 * time.Second

	// maxToolResponseSize caps upstream tool responses (2MB).
	maxToolResponseSize = 2 * 1024 * 1024
)

// ToolsProxy forwards tool invocations to a fixed upstream endpoint and
// normalizes quiz-style results into a stable client shape. Results of any
// other shape pass through unchanged.
type ToolsProxy struct {
	upstreamURL string
	httpClient  *http.Client
}

// NewToolsProxy creates a proxy targeting the given upstream endpoint.
func NewToolsProxy(upstreamURL string) *ToolsProxy {
	return &ToolsProxy{
		upstreamURL: upstreamURL,
		httpClient:  &http.Client{Timeout: toolsTimeout},
	}
}

// ToolRequest is the body of POST /api/tools.
type ToolRequest struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// ServeHTTP proxies one tool invocation. Upstream failure is a 502;
// anything broken on our side is a 500.
func (tp *ToolsProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req ToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeToolError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.Tool == "" {
		writeToolError(w, http.StatusBadRequest, "Missing tool name")
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"tool": req.Tool,
		"args": req.Args,
	})
	if err != nil {
		writeToolError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	upReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, tp.upstreamURL, bytes.NewReader(body))
	if err != nil {
		writeToolError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	upReq.Header.Set("Content-Type", "application/json")

	resp, err := tp.httpClient.Do(upReq)
	if err != nil {
		log.Printf("TOOLS_UPSTREAM_UNREACHABLE | tool=%s error=%v", req.Tool, err)
		writeToolError(w, http.StatusBadGateway, "Tool upstream unreachable")
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxToolResponseSize))
	if err != nil {
		writeToolError(w, http.StatusBadGateway, "Tool upstream read failed")
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("TOOLS_UPSTREAM_ERROR | tool=%s status=%d", req.Tool, resp.StatusCode)
		// The upstream status and body ride along for diagnostics.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   "Tool upstream error",
			"status":  resp.StatusCode,
			"details": string(respBody),
		})
		return
	}

	out := NormalizeQuizResult(respBody)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

func writeToolError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ============================================================================
// QUIZ NORMALIZATION
// ============================================================================

// NormalizeQuizResult rewrites a quiz-style tool result so clients see a
// stable shape: an options map keyed by letter becomes an array ordered by
// key, and a letter-coded correct_answer is resolved to the option text. The
// upstream wraps tool output in a {success, result} envelope; the quiz inside
// the envelope is normalized in place. Results that are not quiz-shaped are
// returned unchanged.
func NormalizeQuizResult(raw []byte) []byte {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return raw
	}

	quiz := payload
	if success, ok := payload["success"].(bool); ok && success {
		if inner, ok := payload["result"].(map[string]interface{}); ok {
			quiz = inner
		}
	}

	keyed, ok := quiz["options"].(map[string]interface{})
	if !ok {
		return raw
	}

	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	options := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		options = append(options, keyed[k])
	}
	quiz["options"] = options

	// Resolve a letter-coded answer to its option text.
	if letter, ok := quiz["correct_answer"].(string); ok {
		if text, ok := keyed[letter]; ok {
			quiz["correct_answer"] = text
		}
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return raw
	}
	return out
}
