// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatbots-tui/internal/logging"
)

// =============================================================================
// MESSAGES
// =============================================================================

// DispatchMsg carries a function from a background generation onto the
// Bubble Tea event loop. Update runs it.
type DispatchMsg struct {
	Fn func()
}

// ChatsChangedMsg asks the model to reload the sidebar, e.g. after a chat
// file was added or removed outside the app.
type ChatsChangedMsg struct{}

// renderTickMsg flushes a throttled re-render of the streaming reply.
type renderTickMsg struct{}

// =============================================================================
// PROGRAM DISPATCHER
// =============================================================================

// ProgramDispatcher posts session callbacks to a running tea.Program. It
// implements session.Dispatcher.
type ProgramDispatcher struct {
	mu      sync.RWMutex
	program *tea.Program
}

// Attach sets the program callbacks are sent to. Call it before the first
// message is sent.
func (d *ProgramDispatcher) Attach(p *tea.Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.program = p
}

// Dispatch sends fn to the program's event loop. It returns once the loop
// has accepted the message or the program has exited.
func (d *ProgramDispatcher) Dispatch(fn func()) {
	d.mu.RLock()
	p := d.program
	d.mu.RUnlock()

	if p == nil {
		logging.For("ui").Warn("dropping callback: no program attached")
		return
	}
	p.Send(DispatchMsg{Fn: fn})
}
