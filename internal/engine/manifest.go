// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chatbots-tui/internal/logging"
	"github.com/jeranaias/chatbots-tui/internal/ollama"
)

// ManifestFile is the name of the manifest inside a model directory.
const ManifestFile = "model.toml"

// Backend names.
const (
	BackendOllama = "ollama"
	BackendEcho   = "echo"
)

// Manifest describes how a model directory is served.
type Manifest struct {
	Backend   string `toml:"backend"`
	Name      string `toml:"name"`
	URL       string `toml:"url"`
	NumCtx    int    `toml:"num_ctx"`
	Autostart bool   `toml:"autostart"`
}

// ReadManifest decodes <dir>/model.toml. A missing backend defaults to
// ollama.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)

	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrManifestMissing
		}
		return nil, fmt.Errorf("invalid %s: %w", ManifestFile, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logging.For("engine").Warn("unknown manifest keys ignored", "path", path, "keys", undecoded)
	}

	m.Backend = strings.ToLower(strings.TrimSpace(m.Backend))
	if m.Backend == "" {
		m.Backend = BackendOllama
	}
	return &m, nil
}

// ManifestOpener opens model directories according to their manifest.
// Every failure is returned as a *LoadError.
type ManifestOpener struct {
	// NewClient builds the Ollama client for a manifest URL. Nil uses
	// ollama.NewClientWithConfig.
	NewClient func(baseURL string) *ollama.Client
}

// Open implements Opener.
func (o ManifestOpener) Open(ctx context.Context, dir, device string) (Engine, error) {
	device = NormalizeDevice(device)
	fail := func(err error) (Engine, error) {
		return nil, &LoadError{Dir: dir, Device: device, Err: err}
	}

	if !ValidDevice(device) {
		return fail(fmt.Errorf("%w: %q", ErrUnknownDevice, device))
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fail(ErrModelDirMissing)
	}

	m, err := ReadManifest(dir)
	if err != nil {
		return fail(err)
	}

	log := logging.For("engine")
	log.Info("opening model", "dir", dir, "backend", m.Backend, "device", device)

	switch m.Backend {
	case BackendOllama:
		eng, err := o.openOllama(ctx, m, device)
		if err != nil {
			return fail(err)
		}
		return eng, nil
	case BackendEcho:
		return &EchoEngine{}, nil
	default:
		return fail(fmt.Errorf("%w: %q", ErrUnknownBackend, m.Backend))
	}
}

func (o ManifestOpener) openOllama(ctx context.Context, m *Manifest, device string) (*OllamaEngine, error) {
	if m.Name == "" {
		return nil, ErrManifestNoModel
	}

	newClient := o.NewClient
	if newClient == nil {
		newClient = func(baseURL string) *ollama.Client {
			return ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: baseURL})
		}
	}
	client := newClient(m.URL)

	if m.Autostart {
		if err := client.EnsureRunning(ctx); err != nil {
			return nil, withHint(err, m, client.BaseURL())
		}
	} else if err := client.CheckRunning(ctx); err != nil {
		return nil, withHint(err, m, client.BaseURL())
	}

	if _, err := client.GetModel(ctx, m.Name); err != nil {
		return nil, withHint(err, m, client.BaseURL())
	}

	opts := &ollama.Options{NumCtx: m.NumCtx}
	if device == DeviceCPU {
		zero := 0
		opts.NumGPU = &zero
	}
	return &OllamaEngine{client: client, model: m.Name, options: opts}, nil
}

// withHint adds the usual next step to an Ollama failure. The result still
// wraps err.
func withHint(err error, m *Manifest, baseURL string) error {
	switch {
	case ollama.IsNotRunning(err) && !m.Autostart:
		return fmt.Errorf("%w at %s (start it with 'ollama serve' or set autostart = true in %s)", err, baseURL, ManifestFile)
	case ollama.IsNotRunning(err):
		return fmt.Errorf("%w at %s", err, baseURL)
	case ollama.IsModelNotFound(err):
		return fmt.Errorf("%w: %s (run 'ollama pull %s')", err, m.Name, m.Name)
	case ollama.IsTimeout(err):
		return fmt.Errorf("%w waiting for %s", err, baseURL)
	}
	return err
}
