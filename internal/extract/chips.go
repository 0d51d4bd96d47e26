// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import "strings"

// =============================================================================
// CHIP MARKERS
// =============================================================================

const (
	markerOpen  = "[["
	markerClose = "]]"
	markerSep   = "::"
)

// Chip is one inline learning-chip marker lifted out of response text.
type Chip struct {
	Term        string
	Explanation string
}

// Segment is one run of parsed text: either plain prose or a chip. Exactly
// one of the two fields is meaningful; Chip is nil for plain segments.
type Segment struct {
	Text string
	Chip *Chip
}

// Segments splits text into plain runs and complete chip markers, in order.
// An unterminated marker at the tail is still pending and is returned as a
// plain segment, so re-running on a longer prefix of the same stream agrees
// with the shorter prefix on everything already closed.
func Segments(text string) []Segment {
	var segs []Segment
	for len(text) > 0 {
		open := strings.Index(text, markerOpen)
		if open < 0 {
			segs = append(segs, Segment{Text: text})
			break
		}

		rest := text[open+len(markerOpen):]
		closing := strings.Index(rest, markerClose)
		if closing < 0 {
			// Tail marker not yet closed by the stream.
			segs = append(segs, Segment{Text: text})
			break
		}

		chip, ok := parseChip(rest[:closing])
		if !ok {
			// Empty marker body, keep it as prose through the delimiter
			// and rescan what follows.
			end := open + len(markerOpen) + closing + len(markerClose)
			segs = append(segs, Segment{Text: text[:end]})
			text = text[end:]
			continue
		}

		if open > 0 {
			segs = append(segs, Segment{Text: text[:open]})
		}
		segs = append(segs, Segment{Chip: &chip})
		text = rest[closing+len(markerClose):]
	}
	return segs
}

// Chips returns just the complete chips in text, in order of appearance.
func Chips(text string) []Chip {
	var chips []Chip
	for _, seg := range Segments(text) {
		if seg.Chip != nil {
			chips = append(chips, *seg.Chip)
		}
	}
	return chips
}

// parseChip interprets a marker body as "term" or "term::explanation".
func parseChip(inner string) (Chip, bool) {
	term := inner
	explanation := ""
	if i := strings.Index(inner, markerSep); i >= 0 {
		term = inner[:i]
		explanation = strings.TrimSpace(inner[i+len(markerSep):])
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return Chip{}, false
	}
	return Chip{Term: term, Explanation: explanation}, true
}
