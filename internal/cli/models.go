// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbots-tui/internal/detect"
	"github.com/jeranaias/chatbots-tui/internal/engine"
	"github.com/jeranaias/chatbots-tui/internal/logging"
	"github.com/jeranaias/chatbots-tui/internal/ollama"
	"github.com/jeranaias/chatbots-tui/internal/pipeline"
	"github.com/jeranaias/chatbots-tui/internal/util"
)

func newModelsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List model directories",
		Long: `List the model directories under the models directory.

Each model directory holds a model.toml that says how it is served. The
directory used is named after the configured model, parameters and
quantization, for example Gemma_3-4B-4-bit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listModels(cmd)
		},
	}
	cmd.AddCommand(newModelsInitCommand(a))
	return cmd
}

func (a *app) listModels(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	modelsDir := a.cfg.ModelsDir()
	active := pipeline.ModelDirName(a.cfg.PipelineSettings())

	entries, err := os.ReadDir(modelsDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	fmt.Fprintf(out, "%s %s\n", LabelStyle.Render("Models in"), modelsDir)
	if len(names) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No model directories. Run 'chatbots models init' to create one."))
	}
	foundActive := false
	for _, name := range names {
		marker := "  "
		if name == active {
			marker = SuccessStyle.Render("* ")
			foundActive = true
		}
		fmt.Fprintf(out, "%s%s  %s\n", marker, name, DimStyle.Render(describeManifest(filepath.Join(modelsDir, name))))
	}
	if !foundActive {
		fmt.Fprintf(out, "%s %s\n", WarningStyle.Render("Configured model directory is missing:"), active)
	}

	gpu := detect.GPU(cmd.Context())
	fmt.Fprintf(out, "%s %s\n", LabelStyle.Render("GPU"), gpu)
	if warning := detect.DeviceWarning(a.cfg.Settings.Device, gpu); warning != "" {
		fmt.Fprintln(out, WarningStyle.Render(warning))
	}
	return nil
}

// describeManifest summarizes dir's model.toml in one line.
func describeManifest(dir string) string {
	m, err := engine.ReadManifest(dir)
	if err != nil {
		return err.Error()
	}
	parts := []string{m.Backend}
	if m.Name != "" {
		parts = append(parts, m.Name)
	}
	if m.URL != "" {
		parts = append(parts, m.URL)
	}
	if m.Autostart {
		parts = append(parts, "autostart")
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// INIT
// =============================================================================

func newModelsInitCommand(a *app) *cobra.Command {
	var (
		m     engine.Manifest
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir-name]",
		Short: "Create a model directory with a model.toml",
		Long: `Create a model directory and write its model.toml.

Without a name the directory for the configured model is created.

Examples:
  chatbots models init --name gemma3:4b
  chatbots models init --backend echo
  chatbots models init Llama-8B-8-bit --name llama3:8b --autostart`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := pipeline.ModelDirName(a.cfg.PipelineSettings())
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
				return &UsageError{Reason: fmt.Sprintf("invalid directory name %q", name)}
			}

			m.Backend = strings.ToLower(strings.TrimSpace(m.Backend))
			switch m.Backend {
			case engine.BackendOllama:
				if m.Name == "" {
					return &UsageError{Reason: "--name is required for the ollama backend"}
				}
			case engine.BackendEcho:
				m.Name, m.URL, m.NumCtx, m.Autostart = "", "", 0, false
			default:
				return &UsageError{Reason: fmt.Sprintf("unknown backend %q (use ollama or echo)", m.Backend)}
			}

			dir := filepath.Join(a.cfg.ModelsDir(), name)
			path := filepath.Join(dir, engine.ManifestFile)
			if _, err := os.Stat(path); err == nil && !force {
				return &UsageError{Reason: fmt.Sprintf("%s already exists (use --force to replace it)", path)}
			}

			var buf bytes.Buffer
			if err := toml.NewEncoder(&buf).Encode(m); err != nil {
				return err
			}
			if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
				return err
			}

			logging.For("cli").Info("model directory created", "dir", dir, "backend", m.Backend)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", SuccessStyle.Render("Wrote"), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&m.Backend, "backend", engine.BackendOllama, "backend: ollama or echo")
	cmd.Flags().StringVar(&m.Name, "name", "", "model name on the backend (e.g. gemma3:4b)")
	cmd.Flags().StringVar(&m.URL, "url", ollama.DefaultBaseURL, "backend URL")
	cmd.Flags().IntVar(&m.NumCtx, "num-ctx", 0, "context window size (0 uses the backend default)")
	cmd.Flags().BoolVar(&m.Autostart, "autostart", false, "start the backend if it is not running")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing model.toml")
	return cmd
}
