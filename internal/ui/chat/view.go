// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbots-tui/internal/ui/components"
	"github.com/jeranaias/chatbots-tui/internal/util"
)

const appTitle = "Chatbots"

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes every pane from the window size.
func (m *Model) layout() {
	if !m.ready {
		return
	}

	mainWidth := m.width
	if m.sidebarOpen {
		m.sidebar.Width = m.theme.SidebarWidth()
		m.sidebar.Height = m.height
		mainWidth -= m.sidebar.Width
	}
	if mainWidth < 10 {
		mainWidth = 10
	}

	m.statusBar.Width = mainWidth
	m.statusBar.Settings = m.manager.Settings()
	m.help.Width = mainWidth
	m.input.Width = mainWidth - 7 // border, padding and prompt

	// header + input box (3) + status bar
	chrome := 1 + 3 + 1
	if m.showHelp {
		chrome += lipgloss.Height(m.help.FullHelpView(m.keys.FullHelp()))
	}
	height := m.height - chrome
	if height < 1 {
		height = 1
	}

	m.viewport.Width = mainWidth
	m.viewport.Height = height
	m.md.Width = mainWidth - 4
}

// refresh re-renders the conversation into the viewport.
func (m *Model) refresh() {
	if len(m.messages) == 0 {
		m.viewport.SetContent(m.emptyView())
		return
	}
	m.viewport.SetContent(components.RenderConversation(m.messages, m.viewport.Width, m.theme, m.md))
}

func (m *Model) emptyView() string {
	hint := "Send a message to start a new chat."
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
		m.theme.SidebarHint.Render(hint))
}

func (m *Model) shortcuts() []components.Shortcut {
	bindings := m.keys.ShortHelp()
	out := make([]components.Shortcut, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, components.Shortcut{Key: b.Help().Key, Desc: b.Help().Desc})
	}
	return out
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the window.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	sections := []string{
		m.headerView(),
		m.viewport.View(),
		m.inputView(),
		m.statusBar.View(),
	}
	if m.showHelp {
		sections = append(sections, m.help.FullHelpView(m.keys.FullHelp()))
	}
	main := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if !m.sidebarOpen {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
}

func (m *Model) headerView() string {
	title := appTitle
	if chat, ok := m.activeTitle(); ok {
		title += " - " + chat
	}
	width := m.viewport.Width
	return m.theme.Header.Width(width).Render(util.TruncateWidth(title, width-2))
}

func (m *Model) activeTitle() (string, bool) {
	if m.chatID == "" {
		return "", false
	}
	for _, c := range m.sidebar.Chats {
		if c.ID == m.chatID {
			return c.Title, true
		}
	}
	return m.chatID, true
}

func (m *Model) inputView() string {
	width := m.viewport.Width - 2
	if m.confirmDelete != nil {
		prompt := "Delete \"" + m.confirmDelete.Title + "\"? (y/n)"
		return m.theme.InputContainer.Width(width).Render(
			m.theme.StatusError.Render(util.TruncateWidth(prompt, width-2)))
	}
	return m.theme.InputContainer.Width(width).Render(m.input.View())
}
