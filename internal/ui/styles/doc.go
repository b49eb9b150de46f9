// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chatbots TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - assistant messages and sidebar selection
  - Cyan - user highlights and key hints
  - Rose - errors
  - Amber - the generating indicator

Markdown headings use the Catppuccin Latte/Mocha palette, one color per
level.

# Theme System (theme.go)

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	sidebar := theme.Sidebar.Width(theme.SidebarWidth())

# Markdown Styles (markdown.go)

Each rendered span carries a block tag and an inline tag. SpanStyle layers
the inline style over the block style:

	for _, span := range markdown.Render(text) {
		out += theme.SpanStyle(span).Render(span.Text)
	}

# Animation System (animations.go)

Spinner frame sets for the streaming and loading indicators.
*/
package styles
