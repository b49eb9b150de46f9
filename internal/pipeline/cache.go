// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/chatbots-tui/internal/engine"
	"github.com/jeranaias/chatbots-tui/internal/logging"
)

// Settings selects a model.
type Settings struct {
	Model        string
	Parameters   string
	Quantization string
	Device       string
}

// Key identifies a loaded engine: the Settings with the device normalized.
// Two Settings with equal keys share an engine.
type Key Settings

// KeyFor returns the cache key for s. The device is normalized so "gpu" and
// "GPU" share an entry.
func KeyFor(s Settings) Key {
	s.Device = engine.NormalizeDevice(s.Device)
	return Key(s)
}

// ModelDirName returns the directory name of a model under the models
// directory: <Model with spaces as underscores>-<Parameters>-<Quantization>.
func ModelDirName(s Settings) string {
	return strings.ReplaceAll(s.Model, " ", "_") + "-" + s.Parameters + "-" + s.Quantization
}

// Cache holds the most recently opened engine.
type Cache struct {
	modelsDir string
	opener    engine.Opener

	mu     sync.Mutex
	key    Key
	engine engine.Engine
}

// New returns an empty cache that opens models under modelsDir.
func New(modelsDir string, opener engine.Opener) *Cache {
	return &Cache{modelsDir: modelsDir, opener: opener}
}

// ModelDir returns the full path of the model directory for s.
func (c *Cache) ModelDir(s Settings) string {
	return filepath.Join(c.modelsDir, ModelDirName(s))
}

// Get returns the engine for s, opening it on a miss. A failed open leaves
// the cache empty and returns a *engine.LoadError.
//
// Get holds the cache lock while opening, so concurrent callers for the
// same settings open the model once.
func (c *Cache) Get(ctx context.Context, s Settings) (engine.Engine, error) {
	key := KeyFor(s)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine != nil && c.key == key {
		return c.engine, nil
	}

	c.closeLocked()

	dir := c.ModelDir(s)
	eng, err := c.opener.Open(ctx, dir, key.Device)
	if err != nil {
		if !engine.IsLoadError(err) {
			err = &engine.LoadError{Dir: dir, Device: key.Device, Err: err}
		}
		logging.For("pipeline").Error("model load failed", "dir", dir, "err", err)
		return nil, err
	}

	c.key = key
	c.engine = eng
	logging.For("pipeline").Info("model loaded", "dir", dir, "device", key.Device)
	return eng, nil
}

// Loaded reports the key of the cached engine, if any.
func (c *Cache) Loaded() (Key, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key, c.engine != nil
}

// Close releases the cached engine.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Cache) closeLocked() error {
	if c.engine == nil {
		return nil
	}
	var err error
	if closer, ok := c.engine.(io.Closer); ok {
		err = closer.Close()
	}
	c.engine = nil
	c.key = Key{}
	return err
}
