// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatbots-tui/internal/logging"
	"github.com/jeranaias/chatbots-tui/internal/session"
	"github.com/jeranaias/chatbots-tui/internal/transcript"
	"github.com/jeranaias/chatbots-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles every Bubble Tea message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case DispatchMsg:
		if msg.Fn != nil {
			msg.Fn()
		}
		return m, m.flush()

	case renderTickMsg:
		m.tickScheduled = false
		return m, m.flush()

	case ChatsChangedMsg:
		m.reloadChats()
		return m, nil

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.statusBar.Spinner = m.spinner.View()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.ready = true
	m.layout()
	m.refresh()
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmDelete != nil {
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.manager.Abandon()
		return m, tea.Quit

	case key.Matches(msg, m.keys.NewChat):
		m.newChat()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.toggleSidebar()
		return m, nil

	case key.Matches(msg, m.keys.SwitchFocus):
		if m.sidebarOpen {
			m.setFocus(1 - m.focus)
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.layout()
		return m, nil
	}

	if m.focus == FocusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.sidebar.MoveDown()
	case key.Matches(msg, m.keys.Open):
		if chat, ok := m.sidebar.SelectedChat(); ok {
			m.openChat(chat.ID)
		} else {
			m.newChat()
		}
		m.setFocus(FocusInput)
	case key.Matches(msg, m.keys.Delete):
		if chat, ok := m.sidebar.SelectedChat(); ok {
			m.confirmDelete = &chat
		}
	}
	return m, nil
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		id := m.confirmDelete.ID
		m.confirmDelete = nil
		m.deleteChat(id)
	case key.Matches(msg, m.keys.Dismiss), key.Matches(msg, m.keys.Quit):
		m.confirmDelete = nil
	}
	return m, nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m, m.send()
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	m.sidebar.Focused = f == FocusSidebar
	if f == FocusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) toggleSidebar() {
	m.sidebarOpen = !m.sidebarOpen
	if !m.sidebarOpen && m.focus == FocusSidebar {
		m.setFocus(FocusInput)
	}
	m.layout()
	m.refresh()
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// reloadChats re-reads the chat list into the sidebar.
func (m *Model) reloadChats() {
	chats, err := m.log.List()
	if err != nil {
		logging.For("ui").Error("failed to list chats", "err", err)
		return
	}
	m.sidebar.SetChats(chats)
	m.sidebar.ActiveID = m.chatID
}

// newChat abandons any running generation and clears the view. The chat
// file is created with the first message.
func (m *Model) newChat() {
	m.manager.Abandon()
	m.turn++
	m.chatID = ""
	m.messages = nil
	m.endGeneration()
	m.sidebar.ActiveID = ""
	m.sidebar.Selected = 0
	m.refresh()
}

// openChat abandons any running generation and shows chat id.
func (m *Model) openChat(id string) {
	m.manager.Abandon()
	m.turn++
	m.chatID = id
	m.messages = components.FromEntries(m.log.Replay(id))
	m.endGeneration()
	m.sidebar.ActiveID = id
	m.sidebar.Select(id)
	m.refresh()
	m.viewport.GotoBottom()
}

// deleteChat removes chat id. Deleting the chat on screen abandons its
// generation and starts a new chat.
func (m *Model) deleteChat(id string) {
	if id == m.chatID {
		m.newChat()
	}
	if err := m.log.Delete(id); err != nil {
		m.showError(err)
	}
	m.reloadChats()
}

// send submits the input as a user message and starts the reply.
func (m *Model) send() tea.Cmd {
	if m.generating {
		return nil
	}
	text := m.input.Value()

	m.turn++
	chatID, s, err := m.manager.Submit(m.chatID, text, m.callbacks(m.turn))
	switch {
	case errors.Is(err, session.ErrEmptyPrompt), errors.Is(err, session.ErrInvalidState):
		return nil
	case err != nil:
		// The chat may exist even though the message could not be saved.
		if chatID != "" && m.chatID == "" {
			m.chatID = chatID
			m.reloadChats()
			m.sidebar.Select(chatID)
		}
		m.showError(err)
		return nil
	}

	m.input.Reset()
	created := m.chatID == ""
	m.chatID = chatID

	m.messages = append(m.messages,
		components.Message{Role: components.RoleUser, Content: s.Prompt()},
		components.Message{Role: components.RoleAssistant, Streaming: true},
	)
	m.replyIndex = len(m.messages) - 1
	m.generating = true
	m.statusBar.Status = components.StatusGenerating

	if created {
		m.reloadChats()
		m.sidebar.Select(chatID)
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m.spinner.Tick
}

// callbacks returns the session callbacks for reply turn. They run on the
// event loop through DispatchMsg and ignore results of an older turn.
func (m *Model) callbacks(turn int) session.Callbacks {
	return session.Callbacks{
		OnPartial: func(text string) {
			if turn != m.turn || m.replyIndex < 0 {
				return
			}
			m.messages[m.replyIndex].Content = text
			m.dirty = true
		},
		OnComplete: func(text string) {
			if turn != m.turn {
				return
			}
			if m.replyIndex >= 0 {
				m.messages[m.replyIndex].Content = text
			}
			m.endGeneration()
			m.dirty = true
		},
		OnError: func(err error) {
			if turn != m.turn {
				return
			}
			if transcript.IsIOError(err) {
				// The reply is on screen but was not saved.
				m.showError(err)
				return
			}
			m.endGeneration()
			m.statusBar.Status = components.StatusError
			m.dirty = true
		},
	}
}

func (m *Model) endGeneration() {
	if m.replyIndex >= 0 && m.replyIndex < len(m.messages) {
		m.messages[m.replyIndex].Streaming = false
	}
	m.replyIndex = -1
	m.generating = false
	m.statusBar.Status = components.StatusReady
}

// showError appends an error bubble.
func (m *Model) showError(err error) {
	logging.For("ui").Error("chat operation failed", "err", err)
	m.messages = append(m.messages, components.Message{Role: components.RoleError, Content: err.Error()})
	m.refresh()
	m.viewport.GotoBottom()
}

// =============================================================================
// RENDER THROTTLING
// =============================================================================

// flush re-renders the conversation if a callback changed it, at most once
// per renderInterval. A skipped render is retried by a tick.
func (m *Model) flush() tea.Cmd {
	if !m.dirty {
		return nil
	}
	if !m.generating || m.limiter.Allow() {
		m.dirty = false
		atBottom := m.viewport.AtBottom()
		m.refresh()
		if atBottom {
			m.viewport.GotoBottom()
		}
		return nil
	}
	if m.tickScheduled {
		return nil
	}
	m.tickScheduled = true
	return tea.Tick(renderInterval, func(time.Time) tea.Msg { return renderTickMsg{} })
}
