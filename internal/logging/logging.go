// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// =============================================================================
// GLOBAL LOGGER
// =============================================================================

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr, log.InfoLevel)
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           level,
	})
	return l
}

// Logger returns the current global logger.
func Logger() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// For returns the global logger prefixed with a component name.
// Call it at log time rather than caching the result, so a later
// Configure is picked up.
func For(component string) *log.Logger {
	return Logger().WithPrefix(component)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Configure replaces the global logger. An empty file keeps stderr. The
// returned closer releases the log file and must be closed on shutdown.
func Configure(level, file string) (io.Closer, error) {
	lvl := ParseLevel(level)

	if file == "" {
		set(newLogger(os.Stderr, lvl))
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	set(newLogger(f, lvl))
	return f, nil
}

// SetOutput points the global logger at w, keeping its level. Tests use it
// to capture or silence output.
func SetOutput(w io.Writer) {
	set(newLogger(w, Logger().GetLevel()))
}

// Discard silences all logging.
func Discard() {
	SetOutput(io.Discard)
}

func set(l *log.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// ParseLevel maps a config level name to a log level. Unknown names fall
// back to info.
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// ValidLevel reports whether level is a level name ParseLevel understands.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "error", "fatal":
		return true
	}
	return false
}
