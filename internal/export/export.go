// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/chatbots-tui/internal/transcript"
	"github.com/jeranaias/chatbots-tui/internal/util"
)

// ErrUnknownFormat is returned by New for a format it does not know.
var ErrUnknownFormat = errors.New("unknown export format")

// ErrChatNotFound is returned by FromTranscript for a chat without a file.
var ErrChatNotFound = errors.New("chat not found")

// =============================================================================
// CONVERSATION
// =============================================================================

// Role names used in exports.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one exported turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is a chat as read back from its transcript.
type Conversation struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// Created is parsed from the chat id; zero when the id carries no
	// timestamp.
	Created time.Time `json:"created,omitempty"`

	Messages []Message `json:"messages"`
}

// FromTranscript replays chat id into a Conversation.
func FromTranscript(log *transcript.Log, id string) (*Conversation, error) {
	if !log.Exists(id) {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, id)
	}

	conv := &Conversation{ID: id, Title: transcript.UntitledChat, Created: createdAt(id)}
	titled := false
	for _, e := range log.Replay(id) {
		switch e.Kind {
		case transcript.KindTitle:
			if !titled {
				conv.Title = e.Text
				titled = true
			}
		case transcript.KindUser:
			if !titled {
				conv.Title = transcript.Title(e.Text)
				titled = true
			}
			conv.Messages = append(conv.Messages, Message{Role: RoleUser, Content: e.Text})
		case transcript.KindAssistant:
			conv.Messages = append(conv.Messages, Message{Role: RoleAssistant, Content: e.Text})
		}
	}
	return conv, nil
}

// createdAt parses the timestamp prefix of a chat id.
func createdAt(id string) time.Time {
	const layout = "20060102_150405"
	if len(id) < len(layout) {
		return time.Time{}
	}
	t, err := time.ParseInLocation(layout, id[:len(layout)], time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a conversation to the target format and returns the content.
	Export(conv *Conversation) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".json").
	FileExtension() string
}

// Format names an export format on the command line.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatANSI     Format = "ansi"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatJSON, FormatANSI}
}

// New returns the exporter for format.
func New(format Format, opts *Options) (Exporter, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatMarkdown, "markdown":
		return NewMarkdownExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	case FormatANSI, "terminal":
		return NewANSIExporter(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata includes the front matter header (title, id, date).
	IncludeMetadata bool

	// WordWrap is the line width of ANSI output.
	WordWrap int

	// Style is the glamour style of ANSI output: "auto", "dark", "light"
	// or "notty".
	Style string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
		WordWrap:        80,
		Style:           "auto",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ToFile exports a conversation to a file using the specified exporter.
// Returns the output file path or an error.
func ToFile(conv *Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := conv.ID + "_" + sanitizeFilename(conv.Title) + exporter.FileExtension()
	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// The file was still written.
			return outputPath, fmt.Errorf("open %s: %w", outputPath, err)
		}
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	s = util.TruncateRunesNoEllipsis(s, transcript.MaxTitleRunes)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
	}

	result := make([]rune, 0, len(s))
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "chat"
	}
	return string(result)
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
