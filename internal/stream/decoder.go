// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// STREAMING: Robust SSE parsing with error recovery

// =============================================================================
// DECODER
// =============================================================================

// doneSentinel terminates the stream.
var doneSentinel = []byte("[DONE]")

// Decoder reads the wire protocol from an io.Reader and yields typed events.
//
// The wire format is line-delimited: each frame is a single "data: <payload>"
// line, frames are separated by blank lines, and "data: [DONE]" ends the
// stream. A network chunk boundary may fall mid-line; the underlying
// bufio.Reader retains the incomplete remainder until the next chunk arrives,
// so only complete lines are ever parsed. Malformed payloads are skipped: a
// single corrupt frame must not abort an otherwise-healthy stream.
//
// The event sequence is finite and non-restartable. After a DoneEvent every
// subsequent Next returns io.EOF. A transport that closes without sending
// [DONE] is treated as an implicit end, not an error.
type Decoder struct {
	reader *bufio.Reader
	done   bool
}

// NewDecoder creates a Decoder over r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		reader: bufio.NewReader(r),
	}
}

// Next returns the next event in receipt order. It returns io.EOF once the
// stream has ended (after the DoneEvent has been delivered). Any other error
// is a transport failure.
func (d *Decoder) Next() (Event, error) {
	if d.done {
		return nil, io.EOF
	}

	for {
		line, err := d.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// A final line without a trailing newline is still a
				// complete frame once the transport closes.
				if ev, ok := d.parseLine(line); ok {
					return ev, nil
				}
				// Implicit end: no [DONE] before close.
				d.done = true
				return DoneEvent{}, nil
			}
			return nil, err
		}

		if ev, ok := d.parseLine(line); ok {
			return ev, nil
		}
	}
}

// parseLine classifies a single complete line. Returns (nil, false) for blank
// lines, non-data lines, and malformed payloads.
func (d *Decoder) parseLine(line []byte) (Event, bool) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, false
	}

	var data []byte
	switch {
	case bytes.HasPrefix(line, []byte("data: ")):
		data = line[6:]
	case bytes.HasPrefix(line, []byte("data:")):
		data = bytes.TrimSpace(line[5:])
	default:
		// Ignore other SSE fields (event:, id:, retry:, comments).
		return nil, false
	}

	if bytes.Equal(data, doneSentinel) {
		d.done = true
		return DoneEvent{}, true
	}

	return classifyPayload(data)
}

// frame is the superset of recognized payload shapes.
type frame struct {
	Text      *string    `json:"text"`
	Usage     *usageWire `json:"usage"`
	Sources   *[]Source  `json:"sources"`
	Searching *bool      `json:"searching"`
}

// classifyPayload parses a data payload into an event. Unrecognized and
// malformed payloads are discarded, never fatal.
func classifyPayload(data []byte) (Event, bool) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false
	}

	switch {
	case f.Text != nil:
		return TextDelta{Text: *f.Text}, true
	case f.Usage != nil:
		var u Usage
		f.Usage.mergeInto(&u)
		return UsageEvent{Usage: u}, true
	case f.Sources != nil:
		return SourcesEvent{Sources: *f.Sources}, true
	case f.Searching != nil && *f.Searching:
		return SearchingEvent{}, true
	default:
		return nil, false
	}
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

// Accumulator folds a stream of events into the final response state:
// concatenated text, merged usage, and the latest sources list.
type Accumulator struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	text    strings.Builder
	usage   Usage
	sources []Source
	done    bool
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Apply folds one event into the accumulator.
func (a *Accumulator) Apply(ev Event) {
	switch e := ev.(type) {
	case TextDelta:
		a.text.WriteString(e.Text)
	case UsageEvent:
		mergeUsage(&a.usage, e.Usage)
	case SourcesEvent:
		a.sources = e.Sources
	case DoneEvent:
		a.done = true
	}
}

// mergeUsage applies nonzero fields of src onto dst. The decoder already
// resolved absent-vs-zero, so nonzero here means "reported".
func mergeUsage(dst *Usage, src Usage) {
	if src.InputTokens != 0 {
		dst.InputTokens = src.InputTokens
	}
	if src.OutputTokens != 0 {
		dst.OutputTokens = src.OutputTokens
	}
	if src.CacheCreationInputTokens != 0 {
		dst.CacheCreationInputTokens = src.CacheCreationInputTokens
	}
	if src.CacheReadInputTokens != 0 {
		dst.CacheReadInputTokens = src.CacheReadInputTokens
	}
}

// Text returns the concatenated narrative text so far.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// Usage returns the merged token counts.
func (a *Accumulator) Usage() Usage {
	return a.usage
}

// Sources returns the most recent sources list.
func (a *Accumulator) Sources() []Source {
	return a.sources
}

// Done reports whether a DoneEvent has been applied.
func (a *Accumulator) Done() bool {
	return a.done
}
