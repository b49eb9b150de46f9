// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/chatbots-tui/internal/markdown"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}
	if theme.App.Render("test") == "" {
		t.Error("NewTheme() should initialize App style")
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme()

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Sidebar", theme.Sidebar},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"ErrorBubble", theme.ErrorBubble},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
		{"CodeBlock", theme.CodeBlock},
	}

	for _, s := range styles {
		if s.style.Render("test") == "" {
			t.Errorf("%s style should be initialized", s.name)
		}
	}
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestGetLayoutMode(t *testing.T) {
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewTheme()
	for _, tt := range tests {
		theme.SetSize(tt.width, 40)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: GetLayoutMode() = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestSidebarWidthGrowsWithLayout(t *testing.T) {
	theme := NewTheme()
	theme.SetSize(50, 20)
	narrow := theme.SidebarWidth()
	theme.SetSize(150, 20)
	wide := theme.SidebarWidth()
	if narrow >= wide {
		t.Errorf("narrow sidebar %d should be smaller than wide %d", narrow, wide)
	}
}

// =============================================================================
// MARKDOWN STYLE TESTS
// =============================================================================

func TestBlockStyle_Headings(t *testing.T) {
	theme := NewTheme()
	for i, b := range []markdown.Block{markdown.BlockH1, markdown.BlockH2, markdown.BlockH3, markdown.BlockH4} {
		if !theme.BlockStyle(b).GetBold() {
			t.Errorf("heading %d should be bold", i+1)
		}
		if theme.BlockStyle(b).GetForeground() != HeadingColors[i] {
			t.Errorf("heading %d has the wrong color", i+1)
		}
	}
	if theme.BlockStyle(markdown.BlockPlain).GetBold() {
		t.Error("plain text should not be bold")
	}
}

func TestSpanStyle_LayersInlineOverBlock(t *testing.T) {
	theme := NewTheme()

	s := theme.SpanStyle(markdown.Span{Block: markdown.BlockQuote, Inline: markdown.InlineBold})
	if !s.GetBold() {
		t.Error("bold overlay lost")
	}
	if !s.GetItalic() {
		t.Error("quote italics should be inherited")
	}

	strike := theme.SpanStyle(markdown.Span{Block: markdown.BlockPlain, Inline: markdown.InlineStrikethrough})
	if !strike.GetStrikethrough() {
		t.Error("strikethrough overlay lost")
	}
}

func TestSpanStyle_RendersText(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	defer lipgloss.SetColorProfile(termenv.ColorProfile())

	theme := NewTheme()
	span := markdown.Span{Text: "hello", Block: markdown.BlockH2, Inline: markdown.InlineItalic}
	if got := theme.SpanStyle(span).Render(span.Text); got != "hello" {
		t.Errorf("Render under the ASCII profile = %q, want %q", got, "hello")
	}
}

// =============================================================================
// ANIMATION TESTS
// =============================================================================

func TestSpinnerConfigDuration(t *testing.T) {
	if got := LineSpinner.Duration(); got != 100*time.Millisecond {
		t.Errorf("LineSpinner.Duration() = %v, want 100ms", got)
	}
	if got := (SpinnerConfig{}).Duration(); got != time.Second {
		t.Errorf("zero FPS should fall back to one second, got %v", got)
	}
}
