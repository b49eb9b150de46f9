// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbots-tui/internal/detect"
	"github.com/jeranaias/chatbots-tui/internal/logging"
	"github.com/jeranaias/chatbots-tui/internal/transcript"
	"github.com/jeranaias/chatbots-tui/internal/ui/chat"
)

// runTUI opens the chat window and blocks until it is closed.
func (a *app) runTUI(cmd *cobra.Command) error {
	if !isTerminalReader(cmd.InOrStdin()) || !IsStdoutTTY() {
		return &TTYRequiredError{Operation: "open the chat window (try 'chatbots chat')"}
	}
	log := logging.For("cli")

	dispatcher := &chat.ProgramDispatcher{}
	manager, cache := a.newManager(dispatcher)
	defer cache.Close()

	model := chat.New(chat.Options{
		Manager:     manager,
		Log:         a.log,
		SidebarOpen: a.cfg.SidebarOnLaunch(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	dispatcher.Attach(p)

	watcher, err := transcript.NewWatcher(a.log, 0, func() { p.Send(chat.ChatsChangedMsg{}) })
	if err != nil {
		log.Warn("chat list will not follow outside changes", "err", err)
	} else {
		defer watcher.Close()
	}

	go func() {
		if warning := detect.DeviceWarning(a.cfg.Settings.Device, detect.GPU(cmd.Context())); warning != "" {
			log.Warn(warning)
		}
	}()

	log.Info("chat window opened", "settings", a.cfg.PipelineSettings())
	_, err = p.Run()

	// Late callbacks are dropped once the program has exited.
	manager.Abandon()
	manager.Wait()
	log.Info("chat window closed")
	return err
}
