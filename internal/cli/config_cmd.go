// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbots-tui/internal/config"
	"github.com/jeranaias/chatbots-tui/internal/logging"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change settings in config.toml.

Keys use dot notation (settings.device) or a short alias (device).

Examples:
  chatbots config show
  chatbots config get device
  chatbots config set device CPU
  chatbots config set open_sidebar_when_launched n`,
	}
	cmd.AddCommand(
		newConfigShowCommand(a),
		newConfigGetCommand(a),
		newConfigSetCommand(a),
		newConfigPathCommand(a),
		newConfigKeysCommand(),
	)
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, DimStyle.Render("# "+a.cfg.ConfigFile()))
			fmt.Fprint(out, a.cfg.String())
			return nil
		},
	}
}

func newConfigGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := a.cfg.Get(args[0])
			if err != nil {
				return &UsageError{Reason: err.Error()}
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			path := a.cfg.ConfigFile()

			// Start from the file alone so environment and flag overrides
			// are not written back.
			cfg, err := readConfigFile(path)
			if err != nil {
				return &ConfigError{Path: path, Err: err}
			}
			if err := cfg.Set(key, value); err != nil {
				return &UsageError{Reason: err.Error()}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveTo(path); err != nil {
				return &ConfigError{Path: path, Err: err}
			}

			logging.For("cli").Info("config changed", "key", config.ResolveKey(key), "value", value)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", SuccessStyle.Render("Set"), config.ResolveKey(key), value)
			return nil
		},
	}
}

// readConfigFile decodes path over the defaults without environment
// overrides. A missing file yields the defaults.
func readConfigFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return cfg, nil
}

func newConfigPathCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config, chats, models and log locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, row := range [][2]string{
				{"config", a.cfg.ConfigFile()},
				{"chats", a.cfg.ChatsDir()},
				{"models", a.cfg.ModelsDir()},
				{"log", a.cfg.LogFile()},
			} {
				fmt.Fprintf(out, "%s %s\n", LabelStyle.Render(fmt.Sprintf("%-7s", row[0])), row[1])
			}
			return nil
		},
	}
}

func newConfigKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every setting key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.GetAllKeys(), "\n"))
			return nil
		},
	}
}
