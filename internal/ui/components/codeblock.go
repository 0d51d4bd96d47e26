// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/learntab-tui/internal/ui/styles"
)

// =============================================================================
// ARTIFACT CODE VIEW
// =============================================================================

// CodeView renders the body of an artifact tab: a fenced code block lifted
// from a chat message, shown with syntax highlighting and line numbers.
type CodeView struct {
	Language string
	Code     string
	Width    int
	Dark     bool
}

// NewCodeView creates a code view for an artifact tab.
func NewCodeView(language, code string, dark bool) CodeView {
	return CodeView{
		Language: language,
		Code:     code,
		Width:    80,
		Dark:     dark,
	}
}

// Render renders the highlighted code with a language badge and line numbers.
func (v CodeView) Render() string {
	code := strings.TrimRight(v.Code, "\n")

	language := v.Language
	if language == "" {
		language = detectLanguage(code)
	}

	highlighted := highlightCode(code, language, v.Dark)
	lines := strings.Split(highlighted, "\n")

	gutter := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	var rendered []string
	for i, line := range lines {
		rendered = append(rendered, gutter.Render(fmt.Sprintf("%d", i+1))+line)
	}

	var header string
	if language != "" {
		header = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Background(styles.OverlayDim).
			Padding(0, 1).
			Bold(true).
			Render(language) + "\n"
	}

	width := v.Width - 4
	if width < 20 {
		width = 20
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(1, 2).
		MaxWidth(width).
		Render(header + strings.Join(rendered, "\n"))
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// highlightCode applies ANSI syntax highlighting via chroma. Returns the
// code unchanged on any failure.
func highlightCode(code, language string, dark bool) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "github"
	if dark {
		styleName = "monokai"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// detectLanguage guesses the language of unlabeled code.
func detectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}

// =============================================================================
// FENCE SCANNER
// =============================================================================

// Fence is one fenced code block found in message text.
type Fence struct {
	Language string
	Code     string
}

// FindFences extracts completed fenced code blocks from markdown text, in
// order. An unclosed trailing fence is ignored; it is still streaming.
func FindFences(text string) []Fence {
	var fences []Fence
	var current []string
	var language string
	inFence := false

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "```") {
			if inFence {
				fences = append(fences, Fence{
					Language: language,
					Code:     strings.Join(current, "\n"),
				})
				current = nil
				language = ""
				inFence = false
			} else {
				language = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				inFence = true
			}
			continue
		}
		if inFence {
			current = append(current, line)
		}
	}
	return fences
}
