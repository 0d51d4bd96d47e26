// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/learntab-tui/internal/stream"
	"github.com/jeranaias/learntab-tui/internal/ui/styles"
)

// =============================================================================
// RELATED TERMS AND SOURCES
// =============================================================================

// RenderRelated renders the related-terms row shown under a completed deep
// dive. Returns the empty string when there are no terms.
func RenderRelated(terms []string, theme *styles.Theme) string {
	if len(terms) == 0 {
		return ""
	}
	parts := make([]string, 0, len(terms)+1)
	parts = append(parts, theme.RelatedLabel.Render("Related:"))
	for _, term := range terms {
		parts = append(parts, theme.RelatedTerm.Render(term))
	}
	return strings.Join(parts, " ")
}

// RenderSources renders the numbered web-search source list under a message.
// Returns the empty string when there are no sources.
func RenderSources(sources []stream.Source, theme *styles.Theme) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(theme.RelatedLabel.Render("Sources:"))
	for i, src := range sources {
		b.WriteString("\n  ")
		b.WriteString(theme.SourceIndex.Render(fmt.Sprintf("%d.", i+1)))
		b.WriteString(" ")
		title := src.Title
		if title == "" {
			title = src.URL
		}
		b.WriteString(theme.SourceTitle.Render(title))
		if src.URL != "" && src.Title != "" {
			b.WriteString(" ")
			b.WriteString(theme.SourceURL.Render(src.URL))
		}
	}
	return b.String()
}
