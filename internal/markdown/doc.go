// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown turns streamed assistant text into styled spans.
//
// The renderer supports a fixed subset of markdown: ATX headings h1-h4,
// bullet and numbered list lines, quote lines, fenced code blocks and five
// inline families (bold-italic, bold, italic, inline code, strikethrough).
// It is not a CommonMark parser.
//
// # Key Types
//
//   - Span: a byte range of the rendered buffer with one Block and one Inline style
//   - Block: line-level style (plain, h1..h4, bullet, numbered, quote, code)
//   - Inline: resolved inline overlay (bold, italic, bold_italic, inline_code, strikethrough)
//
// # Usage
//
// Render is pure, so it is called again on the whole accumulated text every
// time a token arrives:
//
//	spans := markdown.Render(accumulated)
//	for _, line := range markdown.Lines(spans) {
//	    // style each span of the line
//	}
//
// # Inline precedence
//
// Inline families are matched one after another on the literal line text,
// in the order listed above plus underscore italics after asterisk italics.
// A later family re-tags bytes an earlier family already tagged, so where
// ranges overlap the last applied style wins. Delimiters are kept in the
// output; only block markers are stripped.
package markdown
