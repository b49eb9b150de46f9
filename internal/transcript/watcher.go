// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/chatbots-tui/internal/logging"
)

// =============================================================================
// DIRECTORY WATCHER
// =============================================================================

// DefaultDebounce is how long the directory must be quiet before a change is
// reported. Streaming appends touch the file once per reply, so this mostly
// coalesces create+write pairs and bulk deletes.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports changes to the set of chat files in a Log's directory.
// Appends to existing chats are ignored; only creates, removes and renames
// change what the sidebar shows.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()

	mu      sync.Mutex
	pending bool
	last    time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   sync.WaitGroup
}

// NewWatcher watches l's directory and calls onChange, from a background
// goroutine, after each debounced burst of changes. The directory is
// created if it does not exist yet.
func NewWatcher(l *Log, debounce time.Duration, onChange func()) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := os.MkdirAll(l.Dir(), 0755); err != nil {
		return nil, &IOError{Op: "watch", Path: l.Dir(), Err: err}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &IOError{Op: "watch", Path: l.Dir(), Err: err}
	}
	if err := fw.Add(l.Dir()); err != nil {
		fw.Close()
		return nil, &IOError{Op: "watch", Path: l.Dir(), Err: err}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		dir:      l.Dir(),
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}

	w.done.Add(2)
	go w.processEvents()
	go w.processPending()
	return w, nil
}

// processEvents marks the watcher pending for every relevant event.
func (w *Watcher) processEvents() {
	defer w.done.Done()
	defer func() {
		if r := recover(); r != nil {
			logging.For("transcript").Error("watcher panic", "recovered", r)
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, fileExt) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.last = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.For("transcript").Warn("watcher error", "dir", w.dir, "err", err)
		}
	}
}

// processPending fires onChange once the directory has been quiet for the
// debounce interval.
func (w *Watcher) processPending() {
	defer w.done.Done()

	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case now := <-ticker.C:
			w.mu.Lock()
			fire := w.pending && now.Sub(w.last) >= w.debounce
			if fire {
				w.pending = false
			}
			w.mu.Unlock()

			if fire && w.onChange != nil {
				w.onChange()
			}
		}
	}
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return filepath.Clean(w.dir)
}

// Close stops watching and waits for the background goroutines to exit.
// onChange is never called after Close returns.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.done.Wait()
	return err
}
