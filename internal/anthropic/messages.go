// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package anthropic

// Model identifiers used by learntab. The main chat uses the full model;
// deep dives and side questions run on the cheaper side model.
const (
	DefaultModel = "claude-sonnet-4-20250514"
	SideModel    = "claude-3-5-haiku-20241022"
)

const (
	// DefaultMaxTokens bounds a single response.
	DefaultMaxTokens = 4096

	// webSearchMaxUses bounds upstream search invocations per request.
	webSearchMaxUses = 3
)

// Models maps friendly names to full model identifiers.
var Models = map[string]string{
	"sonnet": DefaultModel,
	"haiku":  SideModel,
}

// ChatMessage is a single conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// CacheControl marks a prompt segment as eligible for upstream prompt reuse.
// The hint is advisory; responses are correct whether or not it is honored.
type CacheControl struct {
	Type string `json:"type"`
}

// SystemBlock is one segment of the system prompt.
type SystemBlock struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// Tool describes a server-side tool the model may invoke.
type Tool struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses,omitempty"`
}

// MessagesRequest is the streaming Messages endpoint payload.
type MessagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    []SystemBlock `json:"system,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	Tools     []Tool        `json:"tools,omitempty"`
}

// NewMessagesRequest assembles a streaming request. A non-empty system
// prompt becomes a single cacheable block; webSearch attaches the bounded
// web search tool.
func NewMessagesRequest(model, system string, messages []ChatMessage, webSearch bool) *MessagesRequest {
	if model == "" {
		model = DefaultModel
	}
	if full, ok := Models[model]; ok {
		model = full
	}

	req := &MessagesRequest{
		Model:     model,
		MaxTokens: DefaultMaxTokens,
		Messages:  messages,
		Stream:    true,
	}
	if system != "" {
		req.System = []SystemBlock{{
			Type:         "text",
			Text:         system,
			CacheControl: &CacheControl{Type: "ephemeral"},
		}}
	}
	if webSearch {
		req.Tools = []Tool{{
			Type:    "web_search_20250305",
			Name:    "web_search",
			MaxUses: webSearchMaxUses,
		}}
	}
	return req
}
