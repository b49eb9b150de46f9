// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the lifecycle state of a generation.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusAbandoned
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusAbandoned
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one background generation for one prompt in one chat.
type Session struct {
	id        string
	chatID    string
	prompt    string
	startedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	status      Status
	accumulated strings.Builder
	err         error
}

func newSession(id, chatID, prompt string, now time.Time, cancel context.CancelFunc) *Session {
	return &Session{
		id:        id,
		chatID:    chatID,
		prompt:    prompt,
		startedAt: now,
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    StatusRunning,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// ChatID returns the chat the reply belongs to.
func (s *Session) ChatID() string { return s.chatID }

// Prompt returns the user message being answered.
func (s *Session) Prompt() string { return s.prompt }

// StartedAt returns when the session started.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Text returns the text accumulated so far.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accumulated.String()
}

// Err returns the failure reason of a Failed session.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the background goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Abandon detaches the session from the display. After Abandon returns no
// callback of this session runs and nothing more is written to its chat.
// The background work stops at its next token. Abandoning a finished
// session does nothing; the return value reports whether this call
// abandoned it.
func (s *Session) Abandon() bool {
	s.mu.Lock()
	if s.status != StatusRunning {
		s.mu.Unlock()
		return false
	}
	s.status = StatusAbandoned
	s.mu.Unlock()

	s.cancel()
	return true
}

// appendDelta adds delta and returns the new snapshot. ok is false once the
// session is no longer running.
func (s *Session) appendDelta(delta string) (snapshot string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return "", false
	}
	s.accumulated.WriteString(delta)
	return s.accumulated.String(), true
}

// complete moves Running to Completed. final is used when the engine
// produced text without streaming it.
func (s *Session) complete(final string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return "", false
	}
	if s.accumulated.Len() == 0 && final != "" {
		s.accumulated.WriteString(final)
	}
	s.status = StatusCompleted
	return s.accumulated.String(), true
}

// fail moves Running to Failed.
func (s *Session) fail(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return false
	}
	s.status = StatusFailed
	s.err = err
	return true
}
