// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// Highlighter colors fenced code. The zero value highlights for a dark
// terminal with 256 colors.
type Highlighter struct {
	Light   bool
	Profile termenv.Profile
}

// Lines highlights code written in lang and returns one string per input
// line. An unknown or empty lang is guessed from the code; when nothing
// matches, or the terminal has no color, the lines come back unchanged.
func (h Highlighter) Lines(code, lang string) []string {
	plain := strings.Split(code, "\n")
	if h.Profile == termenv.Ascii {
		return plain
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return plain
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plain
	}

	var buf strings.Builder
	if err := h.formatter().Format(&buf, h.style(), iterator); err != nil {
		return plain
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	// Formatters may drop or add a trailing empty line; the caller relies
	// on a one-to-one mapping.
	if len(lines) != len(plain) {
		return plain
	}
	return lines
}

func (h Highlighter) style() *chroma.Style {
	name := "catppuccin-mocha"
	if h.Light {
		name = "catppuccin-latte"
	}
	if style := chromaStyles.Get(name); style != nil {
		return style
	}
	return chromaStyles.Fallback
}

func (h Highlighter) formatter() chroma.Formatter {
	name := "terminal256"
	switch h.Profile {
	case termenv.TrueColor:
		name = "terminal16m"
	case termenv.ANSI:
		name = "terminal16"
	}
	if f := formatters.Get(name); f != nil {
		return f
	}
	return formatters.Fallback
}
