// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2026, 10, 19, 14, 25, 1, 0, time.Local)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "chats"))
}

func writeRaw(t *testing.T, l *Log, id, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(l.Dir(), 0755))
	require.NoError(t, os.WriteFile(l.Path(id), []byte(content), 0644))
}

// =============================================================================
// WRITE TESTS
// =============================================================================

func TestLog_RoundTrip(t *testing.T) {
	l := newTestLog(t)

	require.NoError(t, l.Create("20260101_000000", "Hi"))
	require.NoError(t, l.AppendUser("20260101_000000", "Hi"))
	require.NoError(t, l.AppendAssistant("20260101_000000", "Hello!"))

	data, err := os.ReadFile(l.Path("20260101_000000"))
	require.NoError(t, err)
	assert.Equal(t, "TITLE: Hi\nU: Hi\nB: Hello!\n", string(data))

	want := []Entry{
		{Kind: KindTitle, Text: "Hi"},
		{Kind: KindUser, Text: "Hi"},
		{Kind: KindAssistant, Text: "Hello!"},
	}
	assert.Equal(t, want, l.Replay("20260101_000000"))
	assert.Equal(t, want[1:], Messages(l.Replay("20260101_000000")))
}

func TestLog_CreateMakesDirectory(t *testing.T) {
	l := newTestLog(t)
	_, err := os.Stat(l.Dir())
	require.True(t, os.IsNotExist(err))

	require.NoError(t, l.Create("a", "title"))
	assert.True(t, l.Exists("a"))
}

func TestLog_CreateFlattensTitle(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Create("a", "two\nlines"))

	data, err := os.ReadFile(l.Path("a"))
	require.NoError(t, err)
	assert.Equal(t, "TITLE: two lines\n", string(data))
}

func TestLog_CreateFailureIsIOError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "chats")
	// A regular file where the directory should be.
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	l := New(blocker)
	err := l.Create("a", "title")
	require.Error(t, err)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "create", ioErr.Op)
	assert.True(t, IsIOError(err))
}

func TestLog_RejectsPathIDs(t *testing.T) {
	l := newTestLog(t)

	for _, id := range []string{"", "..", "../escape", `a\b`} {
		err := l.Create(id, "x")
		require.Error(t, err, id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
	assert.ErrorIs(t, l.AppendUser("../x", "hi"), ErrInvalidID)
	assert.Empty(t, l.Replay("../x"))
	assert.False(t, l.Exists("../x"))
}

func TestLog_AppendDoesNotEscapePrefixes(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Create("a", "t"))
	require.NoError(t, l.AppendUser("a", "U: looks like a record"))

	entries := Messages(l.Replay("a"))
	require.Len(t, entries, 1)
	assert.Equal(t, "U: looks like a record", entries[0].Text)
}

func TestLog_ConcurrentAppendsKeepLinesWhole(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Create("a", "t"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.AppendUser("a", strings.Repeat("x", 500)))
		}()
	}
	wg.Wait()

	entries := Messages(l.Replay("a"))
	require.Len(t, entries, 20)
	for _, e := range entries {
		assert.Len(t, e.Text, 500)
	}
}

// =============================================================================
// DELETE TESTS
// =============================================================================

func TestLog_DeleteIsIdempotent(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Create("a", "t"))

	require.NoError(t, l.Delete("a"))
	assert.False(t, l.Exists("a"))
	require.NoError(t, l.Delete("a"))

	summaries, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestLog_ListNewestFirst(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Create("20260101_000000", "old"))
	require.NoError(t, l.Create("20260301_000000", "new"))
	require.NoError(t, l.Create("20260201_000000", "mid"))

	// Non-chat files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(l.Dir(), "notes.md"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(l.Dir(), "sub.txt"), 0755))

	summaries, err := l.List()
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "20260301_000000", summaries[0].ID)
	assert.Equal(t, "new", summaries[0].Title)
	assert.Equal(t, "mid", summaries[1].Title)
	assert.Equal(t, "old", summaries[2].Title)
	assert.Equal(t, l.Path("20260301_000000"), summaries[0].Path)
}

func TestLog_ListMissingDirectory(t *testing.T) {
	l := newTestLog(t)
	summaries, err := l.List()
	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestLog_TitleFallback(t *testing.T) {
	l := newTestLog(t)
	long := strings.Repeat("é", 60)

	writeRaw(t, l, "c", "B: orphan reply\nU: "+long+"\nU: second\n")
	writeRaw(t, l, "b", "garbage\n")
	writeRaw(t, l, "a", "")

	summaries, err := l.List()
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, strings.Repeat("é", 50), summaries[0].Title)
	assert.Equal(t, UntitledChat, summaries[1].Title)
	assert.Equal(t, UntitledChat, summaries[2].Title)
}

func TestLog_TitleOnlyFromFirstLine(t *testing.T) {
	l := newTestLog(t)
	writeRaw(t, l, "a", "U: first question\nTITLE: late title\n")

	summaries, err := l.List()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "first question", summaries[0].Title)
}

func TestLog_ListSkipsUnreadable(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root can read any file")
	}
	l := newTestLog(t)
	require.NoError(t, l.Create("20260101_000000", "ok"))
	writeRaw(t, l, "20260102_000000", "TITLE: locked\n")
	require.NoError(t, os.Chmod(l.Path("20260102_000000"), 0000))

	summaries, err := l.List()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "ok", summaries[0].Title)
}

// =============================================================================
// REPLAY TESTS
// =============================================================================

func TestLog_ReplayTrimsAndIgnoresUnknown(t *testing.T) {
	l := newTestLog(t)
	writeRaw(t, l, "a", "TITLE: t\r\n  U: padded  \nnoise\n\nB: reply\nB: no newline")

	want := []Entry{
		{Kind: KindTitle, Text: "t"},
		{Kind: KindUser, Text: "padded"},
		{Kind: KindAssistant, Text: "reply"},
		{Kind: KindAssistant, Text: "no newline"},
	}
	assert.Equal(t, want, l.Replay("a"))
}

func TestLog_ReplayMissingIsEmpty(t *testing.T) {
	l := newTestLog(t)
	entries := l.Replay("missing")
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLog_ReplayLongLines(t *testing.T) {
	l := newTestLog(t)
	long := strings.Repeat("a", 200*1024)
	require.NoError(t, l.Create("a", "t"))
	require.NoError(t, l.AppendAssistant("a", long))

	entries := Messages(l.Replay("a"))
	require.Len(t, entries, 1)
	assert.Equal(t, long, entries[0].Text)
}

// =============================================================================
// ID TESTS
// =============================================================================

func TestLog_NewChatID(t *testing.T) {
	l := newTestLog(t)

	id, err := l.NewChatID(created)
	require.NoError(t, err)
	assert.Equal(t, "20261019_142501", id)
}

func TestLog_CreateChatSuffixesCollisions(t *testing.T) {
	l := newTestLog(t)

	first, err := l.CreateChat(created, "one")
	require.NoError(t, err)
	second, err := l.CreateChat(created, "two")
	require.NoError(t, err)
	third, err := l.CreateChat(created, "three")
	require.NoError(t, err)

	assert.Equal(t, "20261019_142501", first)
	assert.Equal(t, "20261019_142501_2", second)
	assert.Equal(t, "20261019_142501_3", third)

	later, err := l.CreateChat(created.Add(time.Second), "four")
	require.NoError(t, err)

	summaries, err := l.List()
	require.NoError(t, err)
	require.Len(t, summaries, 4)
	assert.Equal(t, later, summaries[0].ID)
	assert.Equal(t, "one", summaries[3].Title)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Hi", Title("  Hi  "))
	assert.Equal(t, "a b", Title("a\nb"))

	long := strings.Repeat("x", 80)
	assert.Equal(t, strings.Repeat("x", 50), Title(long))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "user", KindUser.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
