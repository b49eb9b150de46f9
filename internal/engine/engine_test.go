// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbots-tui/internal/ollama"
)

// =============================================================================
// HELPERS
// =============================================================================

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Gemma_3-4B-4-bit")
	require.NoError(t, os.MkdirAll(dir, 0755))
	if content != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(content), 0644))
	}
	return dir
}

// fakeOllama serves /api/show for "gemma3:4b" and streams the given deltas
// from /api/generate. The last generate request is stored in *got.
func fakeOllama(t *testing.T, deltas []string, got *ollama.GenerateRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, "Ollama is running")
		case "/api/show":
			var req ollama.ShowModelRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Name != "gemma3:4b" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, `{}`)
		case "/api/generate":
			if got != nil {
				json.NewDecoder(r.Body).Decode(got)
			}
			for _, d := range deltas {
				b, _ := json.Marshal(ollama.GenerateResponse{Response: d})
				fmt.Fprintln(w, string(b))
			}
			fmt.Fprintln(w, `{"done":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// =============================================================================
// OPENER TESTS
// =============================================================================

func TestManifestOpener_LoadErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		dir      func(t *testing.T) string
		device   string
		sentinel error
	}{
		{
			name:     "missing directory",
			dir:      func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			device:   "GPU",
			sentinel: ErrModelDirMissing,
		},
		{
			name:     "missing manifest",
			dir:      func(t *testing.T) string { return writeManifest(t, "") },
			device:   "GPU",
			sentinel: ErrManifestMissing,
		},
		{
			name:     "unknown backend",
			dir:      func(t *testing.T) string { return writeManifest(t, `backend = "openvino"`) },
			device:   "GPU",
			sentinel: ErrUnknownBackend,
		},
		{
			name:     "unknown device",
			dir:      func(t *testing.T) string { return writeManifest(t, `backend = "echo"`) },
			device:   "NPU",
			sentinel: ErrUnknownDevice,
		},
		{
			name:     "no model name",
			dir:      func(t *testing.T) string { return writeManifest(t, `backend = "ollama"`) },
			device:   "GPU",
			sentinel: ErrManifestNoModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ManifestOpener{}.Open(ctx, tt.dir(t), tt.device)
			require.Error(t, err)
			assert.True(t, IsLoadError(err))
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestManifestOpener_InvalidManifest(t *testing.T) {
	dir := writeManifest(t, "backend = [unterminated")
	_, err := ManifestOpener{}.Open(context.Background(), dir, "GPU")
	require.Error(t, err)
	assert.True(t, IsLoadError(err))
	assert.Contains(t, err.Error(), "invalid model.toml")
}

func TestManifestOpener_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	dir := writeManifest(t, fmt.Sprintf("name = %q\nurl = %q\n", "gemma3:4b", url))
	_, err := ManifestOpener{}.Open(context.Background(), dir, "GPU")
	require.Error(t, err)
	assert.True(t, IsLoadError(err))
	assert.True(t, ollama.IsNotRunning(err))
	assert.Contains(t, err.Error(), "ollama serve")
}

func TestManifestOpener_UnknownModel(t *testing.T) {
	srv := fakeOllama(t, nil, nil)
	dir := writeManifest(t, fmt.Sprintf("name = %q\nurl = %q\n", "llama9:1b", srv.URL))

	_, err := ManifestOpener{}.Open(context.Background(), dir, "GPU")
	require.Error(t, err)
	assert.True(t, IsLoadError(err))
	assert.True(t, ollama.IsModelNotFound(err))
	assert.Contains(t, err.Error(), "ollama pull llama9:1b")
}

func TestOllamaEngine_DroppedStreamFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			fmt.Fprintln(w, `{"response":"cut","done":false}`)
		default:
			fmt.Fprint(w, `{}`)
		}
	}))
	t.Cleanup(srv.Close)
	dir := writeManifest(t, fmt.Sprintf("name = %q\nurl = %q\n", "gemma3:4b", srv.URL))

	eng, err := ManifestOpener{}.Open(context.Background(), dir, "GPU")
	require.NoError(t, err)
	text, err := eng.Generate(context.Background(), "hi", GenerationConfig{}, nil)
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.ErrorIs(t, err, ollama.ErrIncompleteStream)
	assert.Equal(t, "cut", text)
}

func TestWithHint(t *testing.T) {
	m := &Manifest{Name: "gemma3:4b"}

	err := withHint(ollama.ErrTimeout, m, "http://h:1")
	assert.True(t, ollama.IsTimeout(err))
	assert.Contains(t, err.Error(), "http://h:1")

	m.Autostart = true
	err = withHint(ollama.ErrNotRunning, m, "http://h:1")
	assert.NotContains(t, err.Error(), "autostart")

	plain := errors.New("other")
	assert.Same(t, plain, withHint(plain, m, "http://h:1"))
}

func TestManifestOpener_OllamaStreams(t *testing.T) {
	var got ollama.GenerateRequest
	srv := fakeOllama(t, []string{"Hel", "lo", "!"}, &got)
	dir := writeManifest(t, fmt.Sprintf("backend = \"ollama\"\nname = %q\nurl = %q\nnum_ctx = 4096\n", "gemma3:4b", srv.URL))

	eng, err := ManifestOpener{}.Open(context.Background(), dir, "cpu")
	require.NoError(t, err)

	var deltas []string
	text, err := eng.Generate(context.Background(), "hi", GenerationConfig{MaxNewTokens: 64}, func(d string) bool {
		deltas = append(deltas, d)
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", text)
	assert.Equal(t, []string{"Hel", "lo", "!"}, deltas)

	assert.Equal(t, "gemma3:4b", got.Model)
	require.NotNil(t, got.Options)
	assert.Equal(t, 64, got.Options.NumPredict)
	assert.Equal(t, 4096, got.Options.NumCtx)
	require.NotNil(t, got.Options.NumGPU, "CPU must send num_gpu = 0")
	assert.Equal(t, 0, *got.Options.NumGPU)
}

func TestOllamaEngine_GPUOmitsNumGPU(t *testing.T) {
	var got ollama.GenerateRequest
	srv := fakeOllama(t, []string{"x"}, &got)
	dir := writeManifest(t, fmt.Sprintf("name = %q\nurl = %q\n", "gemma3:4b", srv.URL))

	eng, err := ManifestOpener{}.Open(context.Background(), dir, "GPU")
	require.NoError(t, err)
	_, err = eng.Generate(context.Background(), "hi", GenerationConfig{}, nil)
	require.NoError(t, err)

	require.NotNil(t, got.Options)
	assert.Nil(t, got.Options.NumGPU)
	assert.Equal(t, DefaultMaxNewTokens, got.Options.NumPredict)
}

func TestOllamaEngine_StopIsNotAnError(t *testing.T) {
	srv := fakeOllama(t, []string{"a", "b", "c"}, nil)
	dir := writeManifest(t, fmt.Sprintf("name = %q\nurl = %q\n", "gemma3:4b", srv.URL))

	eng, err := ManifestOpener{}.Open(context.Background(), dir, "GPU")
	require.NoError(t, err)

	var calls int
	text, err := eng.Generate(context.Background(), "hi", GenerationConfig{}, func(string) bool {
		calls++
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "a", text)
}

func TestOllamaEngine_Closed(t *testing.T) {
	srv := fakeOllama(t, []string{"a"}, nil)
	dir := writeManifest(t, fmt.Sprintf("name = %q\nurl = %q\n", "gemma3:4b", srv.URL))

	eng, err := ManifestOpener{}.Open(context.Background(), dir, "GPU")
	require.NoError(t, err)
	closer, ok := eng.(interface{ Close() error })
	require.True(t, ok)
	require.NoError(t, closer.Close())

	_, err = eng.Generate(context.Background(), "hi", GenerationConfig{}, nil)
	assert.True(t, IsGenerationError(err))
	assert.ErrorIs(t, err, ErrEngineClosed)
}

// =============================================================================
// ECHO BACKEND TESTS
// =============================================================================

func TestEchoEngine(t *testing.T) {
	dir := writeManifest(t, `backend = "echo"`)
	eng, err := ManifestOpener{}.Open(context.Background(), dir, "GPU")
	require.NoError(t, err)

	var deltas []string
	text, err := eng.Generate(context.Background(), "one two three", GenerationConfig{}, func(d string) bool {
		deltas = append(deltas, d)
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, "one two three", text)
	assert.Equal(t, []string{"one ", "two ", "three"}, deltas)
}

func TestEchoEngine_MaxNewTokens(t *testing.T) {
	text, err := EchoEngine{}.Generate(context.Background(), "a b c d", GenerationConfig{MaxNewTokens: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a b ", text)
}

func TestEchoEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := EchoEngine{}.Generate(ctx, "a b", GenerationConfig{}, nil)
	assert.True(t, IsGenerationError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestErrorMessages(t *testing.T) {
	cause := errors.New("model runner crashed")

	gen := &GenerationError{Err: cause}
	assert.Equal(t, "model runner crashed", Message(gen))
	assert.Equal(t, "generation failed: model runner crashed", gen.Error())

	load := &LoadError{Dir: "/m", Device: "GPU", Err: ErrModelDirMissing}
	assert.Equal(t, "failed to load model /m on GPU: model directory does not exist", Message(load))

	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestDevices(t *testing.T) {
	assert.Equal(t, "GPU", NormalizeDevice(" gpu "))
	assert.True(t, ValidDevice("cpu"))
	assert.False(t, ValidDevice("NPU"))
}
