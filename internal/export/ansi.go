// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// ANSI EXPORTER
// =============================================================================

// ANSIExporter renders conversations for a terminal with glamour. The
// output is the Markdown export without front matter, styled.
type ANSIExporter struct {
	options *Options
}

// NewANSIExporter creates a new terminal exporter.
func NewANSIExporter(opts *Options) *ANSIExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &ANSIExporter{options: opts}
}

// Export renders a conversation with ANSI styling.
func (e *ANSIExporter) Export(conv *Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}

	var sb strings.Builder
	writeBody(&sb, conv)

	renderer, err := e.renderer()
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	out, err := renderer.Render(sb.String())
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return []byte(out), nil
}

func (e *ANSIExporter) renderer() (*glamour.TermRenderer, error) {
	wrap := e.options.WordWrap
	if wrap <= 0 {
		wrap = 80
	}

	styleOpt := glamour.WithAutoStyle()
	if e.options.Style != "" && e.options.Style != "auto" {
		styleOpt = glamour.WithStandardStyle(e.options.Style)
	}
	return glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrap))
}

// FileExtension returns the file extension for terminal output.
func (e *ANSIExporter) FileExtension() string {
	return ".ans"
}
