// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat window of the chatbots TUI.

The window shows a sidebar of saved chats next to the conversation, an input
line and a status bar. Replies stream in from the session manager; the
manager's callbacks reach the model through a Dispatcher that posts them to
the Bubble Tea program, so every state change happens inside Update.

# Key Components

## Model (model.go)

The Model struct holds the window state:
  - The chat on screen and its messages
  - The message a running reply writes into
  - Sidebar, status bar and input components
  - A rate limiter capping re-renders while a reply streams

## Update Loop (update.go)

Handles key presses, dispatched session callbacks and chat list changes.
Switching chats, starting a new chat and deleting the active chat all
abandon the running reply; its late results are dropped by the manager.

## View Rendering (view.go)

Lays out the sidebar, header, conversation viewport, input box, status bar
and optional full help.

## Dispatch (messages.go)

ProgramDispatcher implements session.Dispatcher on top of tea.Program.Send.

# Usage

	dispatcher := &chat.ProgramDispatcher{}
	manager := session.NewManager(session.Config{
		Cache:      cache,
		Log:        log,
		Dispatcher: dispatcher,
		Settings:   cfg.PipelineSettings(),
	})
	model := chat.New(chat.Options{Manager: manager, Log: log, SidebarOpen: true})
	p := tea.NewProgram(model, tea.WithAltScreen())
	dispatcher.Attach(p)
	if _, err := p.Run(); err != nil {
		return err
	}
	manager.Wait()
*/
package chat
