// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// BLOCK PASS TESTS
// =============================================================================

func TestRender_HeadingPrecedence(t *testing.T) {
	tests := []struct {
		input string
		block Block
		text  string
	}{
		{"#### a", BlockH4, "a\n"},
		{"### a", BlockH3, "a\n"},
		{"## a", BlockH2, "a\n"},
		{"# a", BlockH1, "a\n"},
		{"#a", BlockPlain, "#a\n"},
		{"##### a", BlockPlain, "##### a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			spans := Render(tt.input)
			require.Len(t, spans, 1)
			assert.Equal(t, tt.block, spans[0].Block)
			assert.Equal(t, tt.text, spans[0].Text)
		})
	}
}

func TestRender_ListsAndQuotes(t *testing.T) {
	tests := []struct {
		input string
		block Block
		text  string
	}{
		{"- item", BlockBullet, "• item\n"},
		{"* item", BlockBullet, "• item\n"},
		{"12. twelfth", BlockNumbered, "12. twelfth\n"},
		{"1.no space", BlockPlain, "1.no space\n"},
		{"> quoted", BlockQuote, "quoted\n"},
		{">not quoted", BlockPlain, ">not quoted\n"},
		{"plain text", BlockPlain, "plain text\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			spans := Render(tt.input)
			require.Len(t, spans, 1)
			assert.Equal(t, tt.block, spans[0].Block)
			assert.Equal(t, tt.text, spans[0].Text)
		})
	}
}

func TestRender_FenceToggling(t *testing.T) {
	spans := Render("```py\ncode\n```\nplain")
	lines := Lines(spans)
	require.Len(t, lines, 2, "fence lines must not produce output")

	assert.Equal(t, "code\n", lines[0][0].Text)
	assert.Equal(t, BlockCode, lines[0][0].Block)
	assert.Equal(t, "py", lines[0][0].Lang)

	assert.Equal(t, "plain\n", lines[1][0].Text)
	assert.Equal(t, BlockPlain, lines[1][0].Block)
	assert.Empty(t, lines[1][0].Lang)
}

func TestRender_FenceLanguageDoesNotChangeBlocks(t *testing.T) {
	withLang := Render("```go\nx := 1\n```")
	withoutLang := Render("```\nx := 1\n```")

	require.Len(t, withLang, 1)
	require.Len(t, withoutLang, 1)
	assert.Equal(t, withoutLang[0].Block, withLang[0].Block)
	assert.Equal(t, withoutLang[0].Text, withLang[0].Text)
	assert.Equal(t, "go", withLang[0].Lang)
}

func TestRender_CodeLinesSkipMarkersAndInline(t *testing.T) {
	spans := Render("```\n# not a heading\n**not bold**\n```")
	lines := Lines(spans)
	require.Len(t, lines, 2)

	for _, line := range lines {
		require.Len(t, line, 1)
		assert.Equal(t, BlockCode, line[0].Block)
		assert.Equal(t, InlineNone, line[0].Inline)
	}
	assert.Equal(t, "# not a heading\n", lines[0][0].Text)
}

func TestRender_UnterminatedFenceStaysCode(t *testing.T) {
	spans := Render("intro\n```\nfirst\nsecond")
	lines := Lines(spans)
	require.Len(t, lines, 3)
	assert.Equal(t, BlockPlain, lines[0][0].Block)
	assert.Equal(t, BlockCode, lines[1][0].Block)
	assert.Equal(t, BlockCode, lines[2][0].Block)
}

func TestRender_EachLineEmitsOneLine(t *testing.T) {
	spans := Render("a\n\nb")
	assert.Equal(t, "a\n\nb\n", PlainText(spans))
	assert.Len(t, Lines(spans), 3)
}

func TestRender_Empty(t *testing.T) {
	spans := Render("")
	require.Len(t, spans, 1)
	assert.Equal(t, "\n", spans[0].Text)
	assert.Equal(t, BlockPlain, spans[0].Block)
}

// =============================================================================
// INLINE PASS TESTS
// =============================================================================

func TestRender_InlineFamilies(t *testing.T) {
	spans := Render("_em_ and `code` and ~~gone~~")

	want := []struct {
		text   string
		inline Inline
	}{
		{"_em_", InlineItalic},
		{" and ", InlineNone},
		{"`code`", InlineCode},
		{" and ", InlineNone},
		{"~~gone~~", InlineStrikethrough},
		{"\n", InlineNone},
	}

	require.Len(t, spans, len(want))
	for i, w := range want {
		assert.Equal(t, w.text, spans[i].Text, "span %d", i)
		assert.Equal(t, w.inline, spans[i].Inline, "span %d", i)
	}
}

func TestRender_OverlapLastAppliedWins(t *testing.T) {
	// Bold matches the whole run first; the italic pass then re-tags "**a*"
	// and "*c*", leaving bold only where italic did not reach.
	spans := Render("**a*b*c**")

	want := []Span{
		{Start: 0, End: 4, Text: "**a*", Inline: InlineItalic},
		{Start: 4, End: 5, Text: "b", Inline: InlineBold},
		{Start: 5, End: 8, Text: "*c*", Inline: InlineItalic},
		{Start: 8, End: 9, Text: "*", Inline: InlineBold},
		{Start: 9, End: 10, Text: "\n", Inline: InlineNone},
	}
	assert.Equal(t, want, spans)
}

func TestRender_TripleAsteriskIsRetagged(t *testing.T) {
	spans := Render("***x***")

	want := []struct {
		text   string
		inline Inline
	}{
		{"***", InlineItalic},
		{"x", InlineBold},
		{"***", InlineItalic},
		{"\n", InlineNone},
	}
	require.Len(t, spans, len(want))
	for i, w := range want {
		assert.Equal(t, w.text, spans[i].Text, "span %d", i)
		assert.Equal(t, w.inline, spans[i].Inline, "span %d", i)
	}
}

func TestRender_StrikethroughCoversEarlierFamilies(t *testing.T) {
	// Strikethrough is applied last and re-tags the whole construct.
	spans := Render("a ~~***b***~~")
	var got []Inline
	for _, s := range spans {
		got = append(got, s.Inline)
	}
	assert.Equal(t, []Inline{InlineNone, InlineStrikethrough, InlineNone}, got)
}

func TestRender_DelimitersAreKept(t *testing.T) {
	spans := Render("say **hi**")
	assert.Equal(t, "say **hi**\n", PlainText(spans))
}

func TestRender_UnmatchedMarkersArePlain(t *testing.T) {
	for _, input := range []string{"a *b", "**open", "`tick", "~~strike", "_under"} {
		spans := Render(input)
		require.Len(t, spans, 1, input)
		assert.Equal(t, InlineNone, spans[0].Inline, input)
	}
}

func TestRender_InlineInsideBlocks(t *testing.T) {
	spans := Render("# Title **b**\n- item `x`")
	lines := Lines(spans)
	require.Len(t, lines, 2)

	// The italic pass also matches "**b*", so only the final "*" stays bold.
	heading := lines[0]
	require.Len(t, heading, 4)
	assert.Equal(t, "Title ", heading[0].Text)
	assert.Equal(t, "**b*", heading[1].Text)
	assert.Equal(t, InlineItalic, heading[1].Inline)
	assert.Equal(t, "*", heading[2].Text)
	assert.Equal(t, InlineBold, heading[2].Inline)
	for _, s := range heading {
		assert.Equal(t, BlockH1, s.Block)
	}

	bullet := lines[1]
	assert.Equal(t, "• item ", bullet[0].Text)
	assert.Equal(t, "`x`", bullet[1].Text)
	assert.Equal(t, InlineCode, bullet[1].Inline)
}

func TestRender_MultiByteText(t *testing.T) {
	spans := Render("日本 **語** ü")
	assert.Equal(t, "日本 **語** ü\n", PlainText(spans))
	require.Len(t, spans, 4)
	assert.Equal(t, "日本 ", spans[0].Text)
	assert.Equal(t, "**語*", spans[1].Text)
	assert.Equal(t, InlineItalic, spans[1].Inline)
	assert.Equal(t, "*", spans[2].Text)
	assert.Equal(t, " ü\n", spans[3].Text)
}

// =============================================================================
// PROPERTY TESTS
// =============================================================================

const sample = "# Answer\n\nHere is **bold** and *it* text.\n\n```go\nfmt.Println(\"hi\")\n```\n\n- one\n- two\n1. first\n> quote ~~old~~"

func TestRender_Deterministic(t *testing.T) {
	assert.Equal(t, Render(sample), Render(sample))
}

func TestRender_SpansAreContiguous(t *testing.T) {
	spans := Render(sample)
	text := PlainText(spans)

	pos := 0
	for i, s := range spans {
		assert.Equal(t, pos, s.Start, "span %d start", i)
		assert.Equal(t, s.Start+len(s.Text), s.End, "span %d end", i)
		assert.Equal(t, text[s.Start:s.End], s.Text, "span %d text", i)
		pos = s.End
	}
	assert.Equal(t, len(text), pos)
}

func TestRender_GrowingPrefixes(t *testing.T) {
	// Simulates a token stream: every prefix must render on its own.
	for i := 0; i <= len(sample); i++ {
		prefix := sample[:i]
		spans := Render(prefix)
		require.NotEmpty(t, spans)
		assert.True(t, strings.HasSuffix(PlainText(spans), "\n"))
	}
}

func TestStyleNames(t *testing.T) {
	assert.Equal(t, "h4", BlockH4.String())
	assert.Equal(t, "code", BlockCode.String())
	assert.Equal(t, "bold_italic", InlineBoldItalic.String())
	assert.Equal(t, "inline_code", InlineCode.String())
	assert.Equal(t, "unknown", Block(99).String())
}
