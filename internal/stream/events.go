// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the learntab wire protocol into typed events.
package stream

// =============================================================================
// EVENT TYPES
// =============================================================================

// Event is one decoded frame of the wire protocol. The set of concrete types
// is closed: TextDelta, UsageEvent, SourcesEvent, SearchingEvent, DoneEvent.
// Unknown or malformed frames are skipped by the decoder and never surface
// as events.
type Event interface {
	isEvent()
}

// TextDelta carries an incremental piece of the narrative text. Deltas must
// be concatenated in receipt order to reconstruct the full response.
type TextDelta struct {
	Text string
}

// UsageEvent carries token accounting from the upstream model. It may arrive
// multiple times in one stream; later values win per field.
type UsageEvent struct {
	Usage Usage
}

// SourcesEvent carries search citations. A later SourcesEvent replaces any
// earlier one wholesale.
type SourcesEvent struct {
	Sources []Source
}

// SearchingEvent is a transient indicator that the upstream is running a
// search tool. It carries no state.
type SearchingEvent struct{}

// DoneEvent marks the end of the stream. It is emitted exactly once, either
// for an explicit [DONE] terminator or when the transport closes without one.
type DoneEvent struct{}

func (TextDelta) isEvent()      {}
func (UsageEvent) isEvent()     {}
func (SourcesEvent) isEvent()   {}
func (SearchingEvent) isEvent() {}
func (DoneEvent) isEvent()      {}

// =============================================================================
// USAGE
// =============================================================================

// Usage holds token counts reported by the upstream model.
type Usage struct {
	InputTokens              int `json:"input_tokens,omitempty"`
	OutputTokens             int `json:"output_tokens,omitempty"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// IsZero reports whether no counts have been recorded.
func (u Usage) IsZero() bool {
	return u == Usage{}
}

// usageWire mirrors Usage with pointer fields so a merge can distinguish
// "field absent" from "field zero".
type usageWire struct {
	InputTokens              *int `json:"input_tokens"`
	OutputTokens             *int `json:"output_tokens"`
	CacheCreationInputTokens *int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     *int `json:"cache_read_input_tokens"`
}

// mergeInto applies present fields onto dst, last write wins per field.
func (w usageWire) mergeInto(dst *Usage) {
	if w.InputTokens != nil {
		dst.InputTokens = *w.InputTokens
	}
	if w.OutputTokens != nil {
		dst.OutputTokens = *w.OutputTokens
	}
	if w.CacheCreationInputTokens != nil {
		dst.CacheCreationInputTokens = *w.CacheCreationInputTokens
	}
	if w.CacheReadInputTokens != nil {
		dst.CacheReadInputTokens = *w.CacheReadInputTokens
	}
}

// =============================================================================
// SOURCES
// =============================================================================

// Source is a single search citation.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}
