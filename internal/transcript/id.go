// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/chatbots-tui/internal/util"
)

const (
	// idLayout is %Y%m%d_%H%M%S.
	idLayout = "20060102_150405"

	// MaxTitleRunes bounds chat titles.
	MaxTitleRunes = 50

	// UntitledChat is shown for chats with neither a title nor a user line.
	UntitledChat = "Untitled Chat"
)

// NewChatID returns the id a chat created at now would get. If a chat with
// that timestamp already exists a suffix _2, _3, ... is appended.
//
// The id is not reserved; CreateChat allocates and creates in one step.
func (l *Log) NewChatID(now time.Time) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextID(now)
}

// nextID must be called with l.mu held.
func (l *Log) nextID(now time.Time) (string, error) {
	base := now.Format(idLayout)
	id := base
	for n := 2; ; n++ {
		_, err := os.Stat(l.Path(id))
		if os.IsNotExist(err) {
			return id, nil
		}
		if err != nil {
			return "", &IOError{Op: "stat", Path: l.Path(id), Err: err}
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

// Title derives a chat title from the first user message: its first 50
// runes, with line breaks flattened.
func Title(firstMessage string) string {
	return util.TruncateRunesNoEllipsis(util.FlattenLine(strings.TrimSpace(firstMessage)), MaxTitleRunes)
}

// validID rejects ids that are empty or could address a file outside the
// chats directory.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
