// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbots-tui/internal/config"
	"github.com/jeranaias/chatbots-tui/internal/engine"
	"github.com/jeranaias/chatbots-tui/internal/logging"
	"github.com/jeranaias/chatbots-tui/internal/pipeline"
	"github.com/jeranaias/chatbots-tui/internal/session"
	"github.com/jeranaias/chatbots-tui/internal/transcript"
)

// Version information (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APP STATE
// =============================================================================

// app holds what every command needs once the config is loaded.
type app struct {
	// Flags
	configPath string
	model      string
	device     string

	cfg      *config.Config
	cfgFile  string
	log      *transcript.Log
	logClose io.Closer

	// opener opens model directories; tests swap it.
	opener engine.Opener
}

func newApp() *app {
	return &app{opener: engine.ManifestOpener{}}
}

// load reads the config, applies flag overrides and starts file logging.
func (a *app) load() error {
	var (
		cfg *config.Config
		err error
	)
	path := a.configPath
	if path == "" {
		path, err = config.Path()
		if err != nil {
			return &ConfigError{Path: "~", Err: err}
		}
	}
	cfg, err = config.LoadFromPath(path)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	if err := a.applyOverrides(cfg); err != nil {
		return &UsageError{Reason: err.Error()}
	}

	a.cfg = cfg
	a.cfgFile = path
	a.log = transcript.New(cfg.ChatsDir())

	// The TUI owns the terminal, so logs always go to the log file.
	closer, err := logging.Configure(cfg.Log.Level, cfg.LogFile())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s cannot open log file %s: %v\n", WarningStyle.Render("[WARN]"), cfg.LogFile(), err)
		closer, _ = logging.Configure(cfg.Log.Level, "")
	}
	a.logClose = closer

	logging.For("cli").Debug("config loaded", "path", path, "chats", cfg.ChatsDir(), "models", cfg.ModelsDir())
	return nil
}

// applyOverrides puts the --model and --device flags over cfg.
func (a *app) applyOverrides(cfg *config.Config) error {
	if a.model != "" {
		cfg.Settings.Model = a.model
	}
	if a.device != "" {
		cfg.Settings.Device = engine.NormalizeDevice(a.device)
	}
	if a.model != "" || a.device != "" {
		return cfg.Validate()
	}
	return nil
}

// reloadSettings rereads the config file so a 'config set' made while a
// window is open applies to its next reply. Flags still win.
func (a *app) reloadSettings() (pipeline.Settings, engine.GenerationConfig, error) {
	cfg, err := config.LoadFromPath(a.cfgFile)
	if err != nil {
		return pipeline.Settings{}, engine.GenerationConfig{}, &ConfigError{Path: a.cfgFile, Err: err}
	}
	if err := a.applyOverrides(cfg); err != nil {
		return pipeline.Settings{}, engine.GenerationConfig{}, err
	}
	return cfg.PipelineSettings(), cfg.GenerationSettings(), nil
}

func (a *app) close() {
	if a.logClose != nil {
		a.logClose.Close()
		a.logClose = nil
	}
}

// newManager wires a session manager for one window or REPL.
func (a *app) newManager(d session.Dispatcher) (*session.Manager, *pipeline.Cache) {
	cache := pipeline.New(a.cfg.ModelsDir(), a.opener)
	m := session.NewManager(session.Config{
		Cache:      cache,
		Log:        a.log,
		Dispatcher: d,
		Settings:   a.cfg.PipelineSettings(),
		Generation: a.cfg.GenerationSettings(),
		Reload:     a.reloadSettings,
	})
	return m, cache
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// newRootCommand builds the command tree around a.
func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "chatbots",
		Short: "Chat with local language models in the terminal",
		Long: `Chatbots is a terminal chat client for local language models.

Run without a command to open the chat window. Replies stream in as they
are generated and every chat is saved as a plain text transcript.

Examples:
  chatbots                      Open the chat window
  chatbots chat                 Chat in a line-based prompt
  chatbots list                 List saved chats
  chatbots show 20250101_120000 Print a saved chat
  chatbots --device cpu         Run the model on the CPU`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default $CHATBOTS_HOME/config.toml)")
	flags.StringVarP(&a.model, "model", "m", "", "model name (overrides config)")
	flags.StringVar(&a.device, "device", "", "device to run the model on: gpu or cpu")

	root.AddCommand(
		newChatCommand(a),
		newListCommand(a),
		newShowCommand(a),
		newDeleteCommand(a),
		newExportCommand(a),
		newConfigCommand(a),
		newModelsCommand(a),
	)
	return root
}

// Execute runs the command line and returns the error to exit with.
func Execute() error {
	a := newApp()
	defer a.close()

	root := newRootCommand(a)
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)
	}
	return err
}
