// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatbots-tui/internal/session"
	"github.com/jeranaias/chatbots-tui/internal/transcript"
	"github.com/jeranaias/chatbots-tui/internal/ui/components"
	"github.com/jeranaias/chatbots-tui/internal/ui/styles"
)

// renderInterval caps how often a streaming reply is re-rendered. Partial
// results arriving faster are coalesced; the latest text always wins.
const renderInterval = 33 * time.Millisecond

// =============================================================================
// FOCUS
// =============================================================================

// Focus is the pane receiving key presses.
type Focus int

const (
	FocusInput Focus = iota
	FocusSidebar
)

// =============================================================================
// MODEL
// =============================================================================

// Options wires a Model to the rest of the app.
type Options struct {
	Manager *session.Manager
	Log     *transcript.Log
	Theme   *styles.Theme

	// SidebarOpen is the sidebar state at launch.
	SidebarOpen bool
}

// Model is the Bubble Tea model of the chat window. Its methods use a
// pointer receiver: session callbacks capture the model and run inside
// Update through DispatchMsg.
type Model struct {
	manager *session.Manager
	log     *transcript.Log
	theme   *styles.Theme
	keys    KeyMap

	input     textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	help      help.Model
	sidebar   *components.Sidebar
	statusBar *components.StatusBar
	md        components.Markdown

	width       int
	height      int
	ready       bool
	sidebarOpen bool
	focus       Focus
	showHelp    bool

	// chatID is the chat on screen; empty for a chat not yet created.
	chatID   string
	messages []components.Message

	// turn increments with every send and chat switch.
	turn int

	// replyIndex is the message the running generation writes into, or -1.
	replyIndex int
	generating bool

	// confirmDelete holds the chat awaiting delete confirmation.
	confirmDelete *transcript.Summary

	limiter       *rate.Limiter
	dirty         bool
	tickScheduled bool
}

// New creates the chat model.
func New(opts Options) *Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Prompt = theme.InputPrompt.Render("> ")
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.LineSpinner.Frames,
		FPS:    styles.LineSpinner.Duration(),
	}
	sp.Style = theme.Spinner

	m := &Model{
		manager:     opts.Manager,
		log:         opts.Log,
		theme:       theme,
		keys:        DefaultKeyMap(),
		input:       input,
		viewport:    viewport.New(80, 20),
		spinner:     sp,
		help:        help.New(),
		sidebar:     components.NewSidebar(theme),
		statusBar:   components.NewStatusBar(theme),
		md:          components.NewMarkdown(theme),
		sidebarOpen: opts.SidebarOpen,
		replyIndex:  -1,
		limiter:     rate.NewLimiter(rate.Every(renderInterval), 1),
	}
	m.statusBar.Shortcuts = m.shortcuts()
	return m
}

// Init loads the chat list.
func (m *Model) Init() tea.Cmd {
	m.reloadChats()
	return textinput.Blink
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ChatID returns the chat on screen; empty before the first message of a
// new chat.
func (m *Model) ChatID() string {
	return m.chatID
}

// Messages returns the messages on screen.
func (m *Model) Messages() []components.Message {
	return m.messages
}

// Generating reports whether a reply is streaming into the view.
func (m *Model) Generating() bool {
	return m.generating
}

// SidebarOpen reports whether the sidebar is shown.
func (m *Model) SidebarOpen() bool {
	return m.sidebarOpen
}

// Focused returns the pane receiving keys.
func (m *Model) Focused() Focus {
	return m.focus
}

// Sidebar returns the sidebar component.
func (m *Model) Sidebar() *components.Sidebar {
	return m.sidebar
}
