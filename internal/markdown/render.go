// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown turns streamed assistant text into styled spans.
package markdown

import (
	"regexp"
	"strings"
)

// =============================================================================
// STYLE TAGS
// =============================================================================

// Block is the line-level style of a span. Every rendered line carries
// exactly one.
type Block int

const (
	BlockPlain Block = iota
	BlockH1
	BlockH2
	BlockH3
	BlockH4
	BlockBullet
	BlockNumbered
	BlockQuote
	BlockCode
)

var blockNames = [...]string{"plain", "h1", "h2", "h3", "h4", "bullet", "numbered", "quote", "code"}

func (b Block) String() string {
	if b < 0 || int(b) >= len(blockNames) {
		return "unknown"
	}
	return blockNames[b]
}

// Inline is the inline overlay of a span after overlaps are resolved.
type Inline int

const (
	InlineNone Inline = iota
	InlineBold
	InlineItalic
	InlineBoldItalic
	InlineCode
	InlineStrikethrough
)

var inlineNames = [...]string{"", "bold", "italic", "bold_italic", "inline_code", "strikethrough"}

func (i Inline) String() string {
	if i < 0 || int(i) >= len(inlineNames) {
		return "unknown"
	}
	return inlineNames[i]
}

// =============================================================================
// SPAN
// =============================================================================

// Span is a contiguous byte range [Start, End) of the rendered buffer.
// Text holds the bytes of that range; concatenating the Text of every span
// in order reproduces the buffer.
type Span struct {
	Start  int
	End    int
	Text   string
	Block  Block
	Inline Inline

	// Lang is the fence language of a code span ("" when none was given).
	Lang string
}

// =============================================================================
// PATTERNS
// =============================================================================

const fence = "```"

var numberedLine = regexp.MustCompile(`^\d+\.\s`)

type inlineRule struct {
	pattern *regexp.Regexp
	style   Inline
}

// Applied in order; a later rule overwrites bytes tagged by an earlier one.
var inlineRules = []inlineRule{
	{regexp.MustCompile(`\*\*\*(.+?)\*\*\*`), InlineBoldItalic},
	{regexp.MustCompile(`\*\*(.+?)\*\*`), InlineBold},
	{regexp.MustCompile(`\*(.+?)\*`), InlineItalic},
	{regexp.MustCompile(`_(.+?)_`), InlineItalic},
	{regexp.MustCompile("`(.+?)`"), InlineCode},
	{regexp.MustCompile(`~~(.+?)~~`), InlineStrikethrough},
}

// headingPrefixes are checked longest first so "#### " is never read as a
// shorter heading.
var headingPrefixes = []struct {
	prefix string
	block  Block
}{
	{"#### ", BlockH4},
	{"### ", BlockH3},
	{"## ", BlockH2},
	{"# ", BlockH1},
}

// =============================================================================
// RENDER
// =============================================================================

// Render re-derives the full span list for text. It keeps no state between
// calls: growing prefixes of a stream can be rendered repeatedly, and an
// unterminated construct simply stays plain until its closing marker arrives.
func Render(text string) []Span {
	var spans []Span
	offset := 0
	inCode := false
	lang := ""

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, fence) {
			inCode = !inCode
			if inCode && len(line) > len(fence) {
				lang = strings.TrimSpace(line[len(fence):])
			} else {
				lang = ""
			}
			continue
		}

		block, clean := classify(line, inCode)
		emitted := clean + "\n"

		var styles []Inline
		spanLang := ""
		if block == BlockCode {
			spanLang = lang
		} else {
			styles = inlineStyles(emitted)
		}

		spans = appendRuns(spans, emitted, offset, block, styles, spanLang)
		offset += len(emitted)
	}

	return spans
}

// classify returns the block style of a line and the text to emit for it.
func classify(line string, inCode bool) (Block, string) {
	if inCode {
		return BlockCode, line
	}
	for _, h := range headingPrefixes {
		if strings.HasPrefix(line, h.prefix) {
			return h.block, line[len(h.prefix):]
		}
	}
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return BlockBullet, "• " + line[2:]
	}
	if numberedLine.MatchString(line) {
		return BlockNumbered, line
	}
	if strings.HasPrefix(line, "> ") {
		return BlockQuote, line[2:]
	}
	return BlockPlain, line
}

// inlineStyles tags every byte of line with the last inline rule that
// matched over it. Returns nil when nothing matched.
func inlineStyles(line string) []Inline {
	var styles []Inline
	for _, rule := range inlineRules {
		for _, m := range rule.pattern.FindAllStringIndex(line, -1) {
			if styles == nil {
				styles = make([]Inline, len(line))
			}
			for i := m[0]; i < m[1]; i++ {
				styles[i] = rule.style
			}
		}
	}
	return styles
}

// appendRuns splits line into maximal runs of equal inline style.
// Match boundaries always sit on ASCII delimiters, so runs never split a
// multi-byte rune.
func appendRuns(spans []Span, line string, offset int, block Block, styles []Inline, lang string) []Span {
	if styles == nil {
		return append(spans, Span{
			Start: offset,
			End:   offset + len(line),
			Text:  line,
			Block: block,
			Lang:  lang,
		})
	}

	start := 0
	for i := 1; i <= len(line); i++ {
		if i < len(line) && styles[i] == styles[start] {
			continue
		}
		spans = append(spans, Span{
			Start:  offset + start,
			End:    offset + i,
			Text:   line[start:i],
			Block:  block,
			Inline: styles[start],
			Lang:   lang,
		})
		start = i
	}
	return spans
}

// =============================================================================
// HELPERS
// =============================================================================

// PlainText returns the rendered buffer the spans cover.
func PlainText(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Lines groups spans by rendered line. The last span of each line ends
// with the line's newline.
func Lines(spans []Span) [][]Span {
	var lines [][]Span
	var current []Span
	for _, s := range spans {
		current = append(current, s)
		if strings.HasSuffix(s.Text, "\n") {
			lines = append(lines, current)
			current = nil
		}
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}
