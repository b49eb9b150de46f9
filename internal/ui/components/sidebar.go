// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/chatbots-tui/internal/transcript"
	"github.com/jeranaias/chatbots-tui/internal/ui/styles"
	"github.com/jeranaias/chatbots-tui/internal/util"
)

// NewChatLabel is the first sidebar row; selecting it starts a fresh chat.
const NewChatLabel = "+ New chat"

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// Sidebar lists saved chats, newest first. Row 0 is the new-chat row;
// row i+1 is Chats[i].
type Sidebar struct {
	Chats    []transcript.Summary
	Selected int
	ActiveID string
	Width    int
	Height   int
	Focused  bool

	theme *styles.Theme
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme, Width: 30, Height: 20}
}

// SetChats replaces the listed chats. The selection follows the chat it
// pointed at when that chat is still listed.
func (s *Sidebar) SetChats(chats []transcript.Summary) {
	prev, hadChat := s.SelectedChat()
	s.Chats = chats

	if hadChat {
		for i, c := range chats {
			if c.ID == prev.ID {
				s.Selected = i + 1
				return
			}
		}
	}
	s.clamp()
}

// Rows returns the number of selectable rows.
func (s *Sidebar) Rows() int {
	return len(s.Chats) + 1
}

// MoveUp moves the selection up one row.
func (s *Sidebar) MoveUp() {
	s.Selected--
	s.clamp()
}

// MoveDown moves the selection down one row.
func (s *Sidebar) MoveDown() {
	s.Selected++
	s.clamp()
}

// Select moves the selection to the chat with id, if listed.
func (s *Sidebar) Select(id string) {
	for i, c := range s.Chats {
		if c.ID == id {
			s.Selected = i + 1
			return
		}
	}
}

// SelectedChat returns the chat under the selection. ok is false on the
// new-chat row.
func (s *Sidebar) SelectedChat() (transcript.Summary, bool) {
	if s.Selected < 1 || s.Selected > len(s.Chats) {
		return transcript.Summary{}, false
	}
	return s.Chats[s.Selected-1], true
}

func (s *Sidebar) clamp() {
	if s.Selected >= s.Rows() {
		s.Selected = s.Rows() - 1
	}
	if s.Selected < 0 {
		s.Selected = 0
	}
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	inner := s.Width - 3 // border and padding
	if inner < 8 {
		inner = 8
	}

	lines := []string{s.theme.SidebarHeading.Render("Chats")}
	visible := s.Height - 3
	if visible < 1 {
		visible = 1
	}

	start := 0
	if s.Selected >= visible {
		start = s.Selected - visible + 1
	}
	end := start + visible
	if end > s.Rows() {
		end = s.Rows()
	}

	for row := start; row < end; row++ {
		lines = append(lines, s.renderRow(row, inner))
	}

	if len(s.Chats) == 0 {
		lines = append(lines, s.theme.SidebarHint.Render(util.TruncateWidth("No saved chats", inner)))
	}

	return s.theme.Sidebar.
		Width(s.Width - 1).
		Height(s.Height).
		Render(strings.Join(lines, "\n"))
}

func (s *Sidebar) renderRow(row, width int) string {
	label := NewChatLabel
	active := false
	if row > 0 {
		chat := s.Chats[row-1]
		label = chat.Title
		active = chat.ID == s.ActiveID
	}
	label = util.TruncateWidth(label, width)

	switch {
	case row == s.Selected && s.Focused:
		return s.theme.SidebarItemSelected.Width(width).Render(label)
	case active:
		return s.theme.SidebarItemActive.Render(label)
	default:
		return s.theme.SidebarItem.Render(label)
	}
}
