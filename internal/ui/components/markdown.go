// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbots-tui/internal/markdown"
	"github.com/jeranaias/chatbots-tui/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Markdown styles assistant text for the terminal. It is re-run on the
// whole text after every streamed token.
type Markdown struct {
	Theme       *styles.Theme
	Highlighter Highlighter
	Width       int
}

// NewMarkdown returns a renderer matched to the theme's terminal.
func NewMarkdown(theme *styles.Theme) Markdown {
	return Markdown{
		Theme: theme,
		Highlighter: Highlighter{
			Light:   !theme.IsDark,
			Profile: theme.ColorProfile,
		},
		Width: 80,
	}
}

// Render returns text as styled terminal lines joined by newlines.
func (m Markdown) Render(text string) string {
	lines := markdown.Lines(markdown.Render(text))
	out := make([]string, 0, len(lines))

	for i := 0; i < len(lines); {
		if isCode(lines[i]) {
			// Highlight a run of code lines together so the lexer sees the
			// whole block.
			j := i
			for j < len(lines) && isCode(lines[j]) && lines[j][0].Lang == lines[i][0].Lang {
				j++
			}
			out = append(out, m.renderCode(lines[i:j])...)
			i = j
			continue
		}
		out = append(out, m.renderLine(lines[i]))
		i++
	}

	return strings.Join(out, "\n")
}

func isCode(line []markdown.Span) bool {
	return len(line) > 0 && line[0].Block == markdown.BlockCode
}

func (m Markdown) renderLine(line []markdown.Span) string {
	var sb strings.Builder
	for _, span := range line {
		text := strings.TrimSuffix(span.Text, "\n")
		if text == "" {
			continue
		}
		sb.WriteString(m.Theme.SpanStyle(span).Render(text))
	}
	rendered := sb.String()

	if m.Width > 0 && lipgloss.Width(rendered) > m.Width {
		rendered = lipgloss.NewStyle().Width(m.Width).Render(rendered)
	}
	return rendered
}

func (m Markdown) renderCode(lines [][]markdown.Span) []string {
	code := make([]string, len(lines))
	for i, line := range lines {
		code[i] = strings.TrimSuffix(line[0].Text, "\n")
	}

	highlighted := m.Highlighter.Lines(strings.Join(code, "\n"), lines[0][0].Lang)
	out := make([]string, len(highlighted))
	for i, h := range highlighted {
		if h == code[i] {
			out[i] = m.Theme.CodeBlock.Render(h)
		} else {
			out[i] = m.Theme.CodeBlock.UnsetForeground().Render(h)
		}
		if m.Width > 0 && lipgloss.Width(out[i]) > m.Width {
			// Code keeps its layout; long lines are cut rather than wrapped.
			out[i] = lipgloss.NewStyle().MaxWidth(m.Width).Render(out[i])
		}
	}
	return out
}
