// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/learntab-tui/internal/extract"
	"github.com/jeranaias/learntab-tui/internal/ui/styles"
)

// =============================================================================
// LEARNING CHIP RENDERING
// =============================================================================

// RenderSegments flattens parsed message segments back into display text,
// styling each learning chip as its bare term. The chip's explanation is not
// shown inline; it seeds the deep-dive tab opened from the term.
func RenderSegments(segs []extract.Segment, theme *styles.Theme) string {
	var b strings.Builder
	for _, seg := range segs {
		if seg.Chip != nil {
			b.WriteString(theme.Chip.Render(seg.Chip.Term))
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Chips lists the chips of a message in order of appearance, with duplicate
// terms removed case-insensitively. This is the pick list for opening a deep
// dive from the active message; each chip keeps its explanation as the seed
// for the tab it opens.
func Chips(segs []extract.Segment) []extract.Chip {
	var chips []extract.Chip
	seen := make(map[string]bool)
	for _, seg := range segs {
		if seg.Chip == nil {
			continue
		}
		key := strings.ToLower(seg.Chip.Term)
		if seen[key] {
			continue
		}
		seen[key] = true
		chips = append(chips, *seg.Chip)
	}
	return chips
}

// ChipTerms lists the pick list's bare terms, for rendering.
func ChipTerms(segs []extract.Segment) []string {
	chips := Chips(segs)
	terms := make([]string, len(chips))
	for i, chip := range chips {
		terms[i] = chip.Term
	}
	return terms
}

// ChipPickList renders the numbered term list shown under a message so the
// keyboard can open a deep dive by index.
func ChipPickList(terms []string, theme *styles.Theme) string {
	if len(terms) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(theme.RelatedLabel.Render("Learn more:"))
	for i, term := range terms {
		b.WriteString(" ")
		b.WriteString(theme.SourceIndex.Render("[" + digit(i+1) + "]"))
		b.WriteString(theme.Chip.Render(term))
	}
	return b.String()
}

func digit(n int) string {
	if n < 0 || n > 9 {
		return "?"
	}
	return string(rune('0' + n))
}
