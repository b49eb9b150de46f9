// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/chatbots-tui/internal/logging"
	"github.com/jeranaias/chatbots-tui/internal/util"
)

// =============================================================================
// RECORD TYPES
// =============================================================================

// Kind identifies a transcript record.
type Kind int

const (
	KindTitle Kind = iota
	KindUser
	KindAssistant
)

// Record prefixes, exactly as they appear on disk.
const (
	PrefixTitle     = "TITLE: "
	PrefixUser      = "U: "
	PrefixAssistant = "B: "
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindUser:
		return "user"
	case KindAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Entry is one replayed record.
type Entry struct {
	Kind Kind
	Text string
}

// Summary describes one chat for the sidebar.
type Summary struct {
	ID    string
	Title string
	Path  string
}

const fileExt = ".txt"

// =============================================================================
// LOG
// =============================================================================

// Log reads and writes chat files under one directory. It is safe for
// concurrent use; writes to the same chat are serialized.
type Log struct {
	dir string
	mu  sync.Mutex
}

// New returns a Log rooted at dir. The directory is created lazily by the
// first Create.
func New(dir string) *Log {
	return &Log{dir: dir}
}

// Dir returns the chats directory.
func (l *Log) Dir() string {
	return l.dir
}

// Path returns the file path of chat id.
func (l *Log) Path(id string) string {
	return filepath.Join(l.dir, id+fileExt)
}

// Exists reports whether chat id has a file on disk.
func (l *Log) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	info, err := os.Stat(l.Path(id))
	return err == nil && !info.IsDir()
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// Create creates (or truncates) the file for chat id and writes its title
// record.
func (l *Log) Create(id, title string) error {
	if !validID(id) {
		return &IOError{Op: "create", Path: id, Err: ErrInvalidID}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.create(id, title, os.O_CREATE|os.O_TRUNC|os.O_WRONLY)
}

// CreateChat allocates a fresh id for a chat started at now, creates its
// file and writes the title record. Concurrent callers never share an id.
func (l *Log) CreateChat(now time.Time, title string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		id, err := l.nextID(now)
		if err != nil {
			return "", err
		}
		err = l.create(id, title, os.O_CREATE|os.O_EXCL|os.O_WRONLY)
		if errors.Is(err, fs.ErrExist) {
			// Created by another process between stat and open.
			continue
		}
		if err != nil {
			return "", err
		}
		return id, nil
	}
}

// create must be called with l.mu held.
func (l *Log) create(id, title string, flag int) error {
	path := l.Path(id)

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return &IOError{Op: "create", Path: l.dir, Err: err}
	}

	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}

	_, err = f.WriteString(PrefixTitle + util.FlattenLine(title) + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}

	logging.For("transcript").Debug("created chat", "id", id)
	return nil
}

// AppendUser appends a user record to chat id.
func (l *Log) AppendUser(id, text string) error {
	return l.appendRecord(id, PrefixUser, text)
}

// AppendAssistant appends an assistant record to chat id. text must already
// be a single line.
func (l *Log) AppendAssistant(id, text string) error {
	return l.appendRecord(id, PrefixAssistant, text)
}

func (l *Log) appendRecord(id, prefix, text string) error {
	if !validID(id) {
		return &IOError{Op: "append", Path: id, Err: ErrInvalidID}
	}
	path := l.Path(id)

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return &IOError{Op: "append", Path: path, Err: err}
	}

	_, err = f.WriteString(prefix + text + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return &IOError{Op: "append", Path: path, Err: err}
	}
	return nil
}

// Delete removes the file of chat id. Deleting a chat that does not exist
// is not an error.
func (l *Log) Delete(id string) error {
	if !validID(id) {
		return &IOError{Op: "delete", Path: id, Err: ErrInvalidID}
	}
	path := l.Path(id)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// List returns every chat, newest first. A missing directory yields an
// empty list; files that cannot be read are skipped.
func (l *Log) List() ([]Summary, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, &IOError{Op: "list", Path: l.dir, Err: err}
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		names = append(names, entry.Name())
	}
	// Ids are timestamps, so reverse lexical order is newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	summaries := make([]Summary, 0, len(names))
	for _, name := range names {
		path := filepath.Join(l.dir, name)
		title, err := readTitle(path)
		if err != nil {
			logging.For("transcript").Warn("skipping unreadable chat", "path", path, "err", err)
			continue
		}
		summaries = append(summaries, Summary{
			ID:    strings.TrimSuffix(name, fileExt),
			Title: title,
			Path:  path,
		})
	}
	return summaries, nil
}

// readTitle returns the title record of the file at path. Files without one
// fall back to the first user line, then to UntitledChat.
func readTitle(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	first := true
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if first && strings.HasPrefix(strings.TrimSpace(line), PrefixTitle) {
				return strings.TrimSpace(line)[len(PrefixTitle):], nil
			}
			first = false
			if strings.HasPrefix(line, PrefixUser) {
				return util.TruncateRunesNoEllipsis(strings.TrimSpace(line[len(PrefixUser):]), MaxTitleRunes), nil
			}
		}
		if err == io.EOF {
			return UntitledChat, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// Replay reads every record of chat id in file order. Lines are trimmed
// before matching; lines without a known prefix are skipped. A chat that
// cannot be read replays as empty.
func (l *Log) Replay(id string) []Entry {
	if !validID(id) {
		return []Entry{}
	}
	path := l.Path(id)

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.For("transcript").Warn("cannot replay chat", "path", path, "err", err)
		}
		return []Entry{}
	}
	defer f.Close()

	entries := []Entry{}
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if e, ok := parseLine(line); ok {
			entries = append(entries, e)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			logging.For("transcript").Warn("replay stopped early", "path", path, "err", err)
			break
		}
	}
	return entries
}

// parseLine classifies one record. The title check runs first, matching the
// order records are written in.
func parseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, PrefixTitle):
		return Entry{Kind: KindTitle, Text: line[len(PrefixTitle):]}, true
	case strings.HasPrefix(line, PrefixUser):
		return Entry{Kind: KindUser, Text: line[len(PrefixUser):]}, true
	case strings.HasPrefix(line, PrefixAssistant):
		return Entry{Kind: KindAssistant, Text: line[len(PrefixAssistant):]}, true
	}
	return Entry{}, false
}

// Messages returns the user and assistant entries of a replay, dropping the
// title record.
func Messages(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Kind != KindTitle {
			out = append(out, e)
		}
	}
	return out
}
