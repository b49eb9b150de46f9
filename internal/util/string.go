// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// UNICODE: every length in this file counts runes or display cells, never
// bytes, so a multi-byte character is never cut in half.

// TruncateRunesNoEllipsis keeps the first maxRunes runes of s.
// Chat titles are derived this way: the first 50 characters, nothing appended.
func TruncateRunesNoEllipsis(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// TruncateWidth truncates s so it occupies at most maxWidth terminal cells.
// Wide (CJK) runes count as two cells.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// StringWidth returns the number of terminal cells s occupies.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// FlattenLine collapses every line break in s into a single space so the
// result fits a one-record-per-line file.
func FlattenLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", " ")
}

// NormalizeInput returns the NFC form of user input with surrounding
// whitespace removed. Composed and decomposed spellings of the same text
// then produce identical titles and transcript lines.
func NormalizeInput(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}
