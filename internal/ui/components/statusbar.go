// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jeranaias/chatbots-tui/internal/pipeline"
	"github.com/jeranaias/chatbots-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status
type Status int

const (
	StatusReady Status = iota
	StatusGenerating
	StatusError
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusGenerating:
		return "Generating..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns the text indicator shown next to the status color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusGenerating:
		return styles.StatusIndicators.Active
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line: status, model and key hints.
type StatusBar struct {
	Status    Status
	Spinner   string
	Settings  pipeline.Settings
	Shortcuts []Shortcut
	Width     int

	theme *styles.Theme
}

// NewStatusBar creates a new StatusBar component
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Status: StatusReady, Width: 80, theme: theme}
}

// View renders the status bar
func (s *StatusBar) View() string {
	var statusStyle lipgloss.Style
	switch s.Status {
	case StatusGenerating:
		statusStyle = s.theme.StatusBusy
	case StatusError:
		statusStyle = s.theme.StatusError
	default:
		statusStyle = s.theme.StatusReady
	}

	icon := s.Status.Icon()
	if s.Status == StatusGenerating && s.Spinner != "" {
		icon = s.Spinner
	}
	left := statusStyle.Render(icon + " " + s.Status.String())

	model := s.theme.ShortcutDesc.Render(modelLabel(s.Settings))

	hints := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		hints = append(hints, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	right := strings.Join(hints, "  ")

	// Drop hints, then the model label, when the line does not fit.
	inner := s.Width - 2
	line := joinSpaced(inner, left, model, right)
	if lipgloss.Width(line) > inner {
		line = joinSpaced(inner, left, model)
	}
	if lipgloss.Width(line) > inner {
		line = ansi.Truncate(left, inner, "…")
	}

	return s.theme.StatusBar.Width(s.Width).Render(line)
}

func modelLabel(s pipeline.Settings) string {
	if s.Model == "" {
		return ""
	}
	return s.Model + " " + s.Parameters + " " + s.Quantization + " (" + s.Device + ")"
}

// joinSpaced lays parts out left to right, pushing the last part to the
// right edge when there is room.
func joinSpaced(width int, parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) < 2 {
		return strings.Join(nonEmpty, "")
	}

	head := strings.Join(nonEmpty[:len(nonEmpty)-1], "  ")
	tail := nonEmpty[len(nonEmpty)-1]
	gap := width - lipgloss.Width(head) - lipgloss.Width(tail)
	if gap < 2 {
		gap = 2
	}
	return head + strings.Repeat(" ", gap) + tail
}
