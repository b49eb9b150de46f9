// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/chatbots-tui/internal/engine"
	"github.com/jeranaias/chatbots-tui/internal/logging"
	"github.com/jeranaias/chatbots-tui/internal/pipeline"
	"github.com/jeranaias/chatbots-tui/internal/transcript"
	"github.com/jeranaias/chatbots-tui/internal/util"
)

// ErrorPrefix starts the reply shown in place of an answer when generation
// fails.
const ErrorPrefix = "Error: "

var (
	// ErrInvalidState is returned by Start while a generation is running.
	ErrInvalidState = errors.New("a reply is already being generated")

	// ErrEmptyPrompt is returned by Submit for blank input.
	ErrEmptyPrompt = errors.New("empty message")
)

// =============================================================================
// CALLBACKS
// =============================================================================

// Callbacks receive a session's results on the foreground context.
// Any of them may be nil.
type Callbacks struct {
	// OnPartial receives the whole text so far after every token. On
	// failure it receives "Error: <message>" once.
	OnPartial func(text string)

	// OnComplete receives the final text.
	OnComplete func(text string)

	// OnError reports a failed generation or a failed transcript write of
	// the reply.
	OnError func(err error)
}

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Transcript is where a Manager writes chats. *transcript.Log implements it.
type Transcript interface {
	CreateChat(now time.Time, title string) (string, error)
	AppendUser(id, text string) error
	AppendAssistant(id, text string) error
}

// Config wires a Manager to its collaborators.
type Config struct {
	Cache      *pipeline.Cache
	Log        Transcript
	Dispatcher Dispatcher

	Settings   pipeline.Settings
	Generation engine.GenerationConfig

	// Reload, when set, is called by Submit before every message so edits
	// to the config apply to the next reply. On error the previous
	// settings stay in use.
	Reload ReloadFunc

	// Now defaults to time.Now.
	Now func() time.Time
}

// ReloadFunc returns the current model and generation settings.
type ReloadFunc func() (pipeline.Settings, engine.GenerationConfig, error)

// Manager runs at most one generation at a time for one window.
type Manager struct {
	cache      *pipeline.Cache
	log        Transcript
	dispatcher Dispatcher
	reload     ReloadFunc
	now        func() time.Time

	mu         sync.Mutex
	settings   pipeline.Settings
	generation engine.GenerationConfig
	current    *Session

	wg sync.WaitGroup
}

// NewManager creates a manager. Cache, Log and Dispatcher are required.
func NewManager(cfg Config) *Manager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		cache:      cfg.Cache,
		log:        cfg.Log,
		dispatcher: cfg.Dispatcher,
		reload:     cfg.Reload,
		now:        now,
		settings:   cfg.Settings,
		generation: cfg.Generation,
	}
}

// SetSettings changes the model used by the next Start.
func (m *Manager) SetSettings(s pipeline.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
}

// refresh pulls fresh settings through the reload hook. A running session
// keeps the settings it started with.
func (m *Manager) refresh() {
	if m.reload == nil {
		return
	}
	settings, gen, err := m.reload()
	if err != nil {
		logging.For("session").Warn("keeping previous settings", "err", err)
		return
	}

	if old := m.Settings(); settings != old {
		logging.For("session").Info("settings changed", "from", old, "to", settings)
	}
	m.SetSettings(settings)

	m.mu.Lock()
	m.generation = gen
	m.mu.Unlock()
}

// Settings returns the model settings used by the next Start.
func (m *Manager) Settings() pipeline.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// Current returns the most recently started session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Busy reports whether a generation is running.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busyLocked()
}

func (m *Manager) busyLocked() bool {
	return m.current != nil && m.current.Status() == StatusRunning
}

// Abandon abandons the running session, if any. Used when the user
// switches chats, starts a new chat or deletes the active one.
func (m *Manager) Abandon() {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()

	if s != nil && s.Abandon() {
		logging.For("session").Debug("session abandoned", "session", s.ID(), "chat", s.ChatID())
	}
}

// Wait blocks until every background goroutine has exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// =============================================================================
// STARTING GENERATIONS
// =============================================================================

// Start begins generating a reply to prompt for chatID. The caller has
// already written the user record. It returns ErrInvalidState while another
// session is running.
func (m *Manager) Start(chatID, prompt string, cb Callbacks) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.busyLocked() {
		return nil, ErrInvalidState
	}
	return m.startLocked(chatID, prompt, cb), nil
}

// Submit sends a user message: it creates the chat when chatID is empty,
// appends the user record and starts the reply. The returned chat id is the
// one the message was written to. Nothing is written when a generation is
// already running.
func (m *Manager) Submit(chatID, text string, cb Callbacks) (string, *Session, error) {
	text = util.NormalizeInput(text)
	if text == "" {
		return chatID, nil, ErrEmptyPrompt
	}
	m.refresh()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.busyLocked() {
		return chatID, nil, ErrInvalidState
	}

	if chatID == "" {
		id, err := m.log.CreateChat(m.now(), transcript.Title(text))
		if err != nil {
			return "", nil, err
		}
		chatID = id
	}
	if err := m.log.AppendUser(chatID, util.FlattenLine(text)); err != nil {
		return chatID, nil, err
	}

	return chatID, m.startLocked(chatID, text, cb), nil
}

func (m *Manager) startLocked(chatID, prompt string, cb Callbacks) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSession(uuid.NewString(), chatID, prompt, m.now(), cancel)
	m.current = s

	settings := m.settings
	generation := m.generation

	logging.For("session").Debug("session started", "session", s.ID(), "chat", chatID)

	m.wg.Add(1)
	go m.run(ctx, s, settings, generation, cb)
	return s
}

// =============================================================================
// BACKGROUND WORK
// =============================================================================

func (m *Manager) run(ctx context.Context, s *Session, settings pipeline.Settings, gen engine.GenerationConfig, cb Callbacks) {
	defer m.wg.Done()
	defer close(s.done)
	defer s.cancel()

	log := logging.For("session")

	eng, err := m.cache.Get(ctx, settings)
	if err != nil {
		m.failed(s, err, cb)
		return
	}

	final, err := eng.Generate(ctx, s.prompt, gen, func(delta string) bool {
		snapshot, ok := s.appendDelta(delta)
		if !ok {
			return true
		}
		if cb.OnPartial != nil {
			m.dispatch(s, func() { cb.OnPartial(snapshot) })
		}
		return false
	})
	if err != nil {
		m.failed(s, err, cb)
		return
	}

	text, ok := s.complete(final)
	if !ok {
		return
	}
	log.Debug("session completed", "session", s.ID(), "chars", len(text))

	if cb.OnComplete != nil {
		m.dispatch(s, func() { cb.OnComplete(text) })
	}

	if err := m.log.AppendAssistant(s.chatID, util.FlattenLine(text)); err != nil {
		log.Error("failed to persist reply", "chat", s.chatID, "err", err)
		if cb.OnError != nil {
			m.dispatch(s, func() { cb.OnError(err) })
		}
	}
}

// failed records a failure and shows it as the reply. Nothing is written to
// the transcript.
func (m *Manager) failed(s *Session, err error, cb Callbacks) {
	if !s.fail(err) {
		return
	}
	logging.For("session").Warn("generation failed", "session", s.ID(), "chat", s.chatID, "err", err)

	msg := ErrorPrefix + engine.Message(err)
	m.dispatch(s, func() {
		if cb.OnPartial != nil {
			cb.OnPartial(msg)
		}
		if cb.OnError != nil {
			cb.OnError(err)
		}
	})
}

// dispatch posts fn to the foreground, dropping it if the session has been
// abandoned by the time it runs.
func (m *Manager) dispatch(s *Session, fn func()) {
	m.dispatcher.Dispatch(func() {
		if s.Status() == StatusAbandoned {
			return
		}
		fn()
	})
}
