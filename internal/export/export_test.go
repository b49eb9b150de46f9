// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbots-tui/internal/transcript"
)

func sampleLog(t *testing.T) (*transcript.Log, string) {
	t.Helper()
	log := transcript.New(t.TempDir())
	id, err := log.CreateChat(time.Date(2026, 10, 19, 9, 30, 0, 0, time.Local), "Go: channels")
	require.NoError(t, err)
	require.NoError(t, log.AppendUser(id, "what is a channel?"))
	require.NoError(t, log.AppendAssistant(id, "A **typed** conduit. ```go ch := make(chan int) ```"))
	return log, id
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestFromTranscript(t *testing.T) {
	log, id := sampleLog(t)

	conv, err := FromTranscript(log, id)
	require.NoError(t, err)

	assert.Equal(t, "20261019_093000", conv.ID)
	assert.Equal(t, "Go: channels", conv.Title)
	assert.True(t, time.Date(2026, 10, 19, 9, 30, 0, 0, time.Local).Equal(conv.Created))
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, Message{Role: RoleUser, Content: "what is a channel?"}, conv.Messages[0])
	assert.Equal(t, RoleAssistant, conv.Messages[1].Role)
}

func TestFromTranscript_Missing(t *testing.T) {
	log := transcript.New(t.TempDir())
	_, err := FromTranscript(log, "20260101_000000")
	assert.True(t, errors.Is(err, ErrChatNotFound))
}

func TestFromTranscript_TitleFallsBackToFirstUserLine(t *testing.T) {
	dir := t.TempDir()
	log := transcript.New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.txt"), []byte("U: hello there\nB: hi\n"), 0644))

	conv, err := FromTranscript(log, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "hello there", conv.Title)
	assert.True(t, conv.Created.IsZero())
	assert.Len(t, conv.Messages, 2)
}

// =============================================================================
// EXPORTER TESTS
// =============================================================================

func TestMarkdownExporter(t *testing.T) {
	log, id := sampleLog(t)
	conv, err := FromTranscript(log, id)
	require.NoError(t, err)

	out, err := NewMarkdownExporter(nil).Export(conv)
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: \"Go: channels\"\nchat: 20261019_093000\n"))
	assert.Contains(t, md, "messages: 2\n")
	assert.Contains(t, md, "# Go: channels\n")
	assert.Contains(t, md, "### You\n\nwhat is a channel?\n")
	assert.Contains(t, md, "### Assistant\n\nA **typed** conduit.")
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	conv := &Conversation{ID: "x", Title: "Plain"}
	out, err := NewMarkdownExporter(&Options{}).Export(conv)
	require.NoError(t, err)
	assert.Equal(t, "# Plain\n\n*No messages.*\n", string(out))
}

func TestMarkdownExporter_EscapesTitle(t *testing.T) {
	conv := &Conversation{ID: "x", Title: "a *b* #c"}
	out, err := NewMarkdownExporter(&Options{}).Export(conv)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# a \\*b\\* \\#c\n"))
}

func TestJSONExporter(t *testing.T) {
	log, id := sampleLog(t)
	conv, err := FromTranscript(log, id)
	require.NoError(t, err)

	out, err := NewJSONExporter(nil).Export(conv)
	require.NoError(t, err)

	var decoded Conversation
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, conv.Title, decoded.Title)
	assert.Equal(t, conv.Messages, decoded.Messages)
}

func TestJSONExporter_EmptyMessagesIsArray(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(&Conversation{ID: "x", Title: "t"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"messages": []`)
}

func TestANSIExporter(t *testing.T) {
	conv := &Conversation{
		ID:       "x",
		Title:    "Styled",
		Messages: []Message{{Role: RoleAssistant, Content: "some **bold** words"}},
	}
	out, err := NewANSIExporter(&Options{Style: "notty", WordWrap: 60}).Export(conv)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Styled")
	assert.Contains(t, string(out), "bold")
}

func TestNew(t *testing.T) {
	for _, f := range Formats() {
		e, err := New(f, nil)
		require.NoError(t, err, f)
		assert.NotEmpty(t, e.FileExtension())
	}

	e, err := New("Markdown", nil)
	require.NoError(t, err)
	assert.Equal(t, ".md", e.FileExtension())

	_, err = New("pdf", nil)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

// =============================================================================
// FILE OUTPUT TESTS
// =============================================================================

func TestToFile(t *testing.T) {
	log, id := sampleLog(t)
	conv, err := FromTranscript(log, id)
	require.NoError(t, err)

	outDir := filepath.Join(t.TempDir(), "out")
	path, err := ToFile(conv, NewMarkdownExporter(nil), &Options{OutputDir: outDir, IncludeMetadata: true})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "20261019_093000_Go-_channels.md"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Go: channels")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"a/b\\c", "a-b-c"},
		{"with space", "with_space"},
		{"", "chat"},
		{"bell\x07", "bell-"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}
}
