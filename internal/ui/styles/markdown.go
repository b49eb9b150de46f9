// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbots-tui/internal/markdown"
)

// =============================================================================
// SPAN STYLES
// =============================================================================

// BlockStyle returns the line-level style for a markdown block.
func (t *Theme) BlockStyle(b markdown.Block) lipgloss.Style {
	switch b {
	case markdown.BlockH1, markdown.BlockH2, markdown.BlockH3, markdown.BlockH4:
		return t.Headings[b-markdown.BlockH1]
	case markdown.BlockBullet:
		return t.Bullet
	case markdown.BlockNumbered:
		return t.Numbered
	case markdown.BlockQuote:
		return t.Quote
	case markdown.BlockCode:
		return t.CodeBlock
	default:
		return lipgloss.NewStyle()
	}
}

// InlineStyle returns the overlay style for an inline tag.
func (t *Theme) InlineStyle(i markdown.Inline) lipgloss.Style {
	switch i {
	case markdown.InlineBold:
		return t.Bold
	case markdown.InlineItalic:
		return t.Italic
	case markdown.InlineBoldItalic:
		return t.BoldItalic
	case markdown.InlineCode:
		return t.InlineCode
	case markdown.InlineStrikethrough:
		return t.Strike
	default:
		return lipgloss.NewStyle()
	}
}

// SpanStyle layers a span's inline style over its block style.
func (t *Theme) SpanStyle(s markdown.Span) lipgloss.Style {
	return t.InlineStyle(s.Inline).Inherit(t.BlockStyle(s.Block))
}
