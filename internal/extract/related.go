// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"regexp"
	"strings"
)

// =============================================================================
// RELATED DIRECTIVE
// =============================================================================

// relatedPattern matches a line-anchored RELATED: prefix, case-insensitive.
var relatedPattern = regexp.MustCompile(`(?im)^[ \t]*related:[ \t]*`)

// Result is the finalized split of a completed response.
type Result struct {
	Explanation  string
	RelatedTerms []string
}

// Finalize splits the full accumulated text into the visible explanation and
// the trailing related-terms list. Only a trailing directive counts: the last
// line-anchored RELATED: match is taken, and its comma-separated list must
// run to the end of the text. A directive-looking line that is followed by
// further prose is left in the explanation untouched.
func Finalize(text string) Result {
	matches := relatedPattern.FindAllStringIndex(text, -1)
	if len(matches) > 0 {
		last := matches[len(matches)-1]
		remainder := text[last[1]:]
		if isTrailingList(remainder) {
			return Result{
				Explanation:  strings.TrimSpace(text[:last[0]]),
				RelatedTerms: splitTerms(remainder),
			}
		}
	}
	return Result{Explanation: strings.TrimSpace(text)}
}

// isTrailingList reports whether the directive's remainder stays on its own
// line, with nothing but whitespace after it.
func isTrailingList(remainder string) bool {
	if i := strings.IndexByte(remainder, '\n'); i >= 0 {
		return strings.TrimSpace(remainder[i:]) == ""
	}
	return true
}

// splitTerms parses "Foo, Bar, Baz" into trimmed, non-empty entries in order.
func splitTerms(list string) []string {
	var terms []string
	for _, raw := range strings.Split(list, ",") {
		if term := strings.TrimSpace(raw); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
