// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbots-tui/internal/export"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		format     string
		outputDir  string
		open       bool
		noMetadata bool
	)

	formats := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		formats = append(formats, string(f))
	}

	cmd := &cobra.Command{
		Use:   "export <chat-id>",
		Short: "Export a saved chat",
		Long: `Export a saved chat as Markdown, JSON or styled terminal text.

Without --output the export is written to stdout.

Examples:
  chatbots export 20250101_120000
  chatbots export 20250101_120000 --format json -o ~/exports
  chatbots export 20250101_120000 --format ansi | less -R`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := export.FromTranscript(a.log, args[0])
			if err != nil {
				if errors.Is(err, export.ErrChatNotFound) {
					return &NotFoundError{Resource: "chat", ID: args[0]}
				}
				return err
			}

			opts := export.DefaultOptions()
			opts.IncludeMetadata = !noMetadata
			opts.OpenAfterExport = open
			opts.WordWrap = GetTerminalWidth()
			if !ColorsEnabled() {
				opts.Style = "notty"
			}

			exporter, err := export.New(export.Format(format), opts)
			if err != nil {
				return &UsageError{Reason: fmt.Sprintf("%v (use one of: %s)", err, strings.Join(formats, ", "))}
			}

			out := cmd.OutOrStdout()
			if outputDir == "" {
				if open {
					return &UsageError{Reason: "--open needs --output"}
				}
				content, err := exporter.Export(conv)
				if err != nil {
					return err
				}
				_, err = out.Write(content)
				return err
			}

			opts.OutputDir = outputDir
			path, err := export.ToFile(conv, exporter, opts)
			if path != "" {
				fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render("Exported to"), path)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "F", string(export.FormatMarkdown), "export format: "+strings.Join(formats, ", "))
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory to write the file to")
	cmd.Flags().BoolVar(&open, "open", false, "open the file after exporting")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "omit the front matter")
	return cmd
}
