// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbots-tui/internal/engine"
)

type fakeEngine struct {
	dir    string
	closed bool
}

func (e *fakeEngine) Generate(ctx context.Context, prompt string, cfg engine.GenerationConfig, fn engine.StreamFunc) (string, error) {
	return prompt, nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

type recordingOpener struct {
	mu      sync.Mutex
	opens   []string
	devices []string
	err     error
}

func (o *recordingOpener) Open(ctx context.Context, dir, device string) (engine.Engine, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens = append(o.opens, dir)
	o.devices = append(o.devices, device)
	if o.err != nil {
		return nil, o.err
	}
	return &fakeEngine{dir: dir}, nil
}

var gemma = Settings{Model: "Gemma 3", Parameters: "4B", Quantization: "4-bit", Device: "gpu"}

func TestModelDirName(t *testing.T) {
	assert.Equal(t, "Gemma_3-4B-4-bit", ModelDirName(gemma))
}

func TestKeyFor_NormalizesDeviceOnly(t *testing.T) {
	key := KeyFor(gemma)
	assert.Equal(t, "GPU", key.Device)
	assert.Equal(t, "Gemma 3", key.Model)
	assert.Equal(t, "gpu", gemma.Device, "settings must not be modified")
	assert.Equal(t, key, KeyFor(Settings(key)))
}

func TestCache_ReusesUntilKeyChanges(t *testing.T) {
	opener := &recordingOpener{}
	cache := New("/models", opener)
	ctx := context.Background()

	first, err := cache.Get(ctx, gemma)
	require.NoError(t, err)
	second, err := cache.Get(ctx, Settings{Model: "Gemma 3", Parameters: "4B", Quantization: "4-bit", Device: "GPU"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	require.Len(t, opener.opens, 1)
	assert.Equal(t, filepath.Join("/models", "Gemma_3-4B-4-bit"), opener.opens[0])
	assert.Equal(t, "GPU", opener.devices[0])

	other := gemma
	other.Parameters = "12B"
	third, err := cache.Get(ctx, other)
	require.NoError(t, err)

	assert.NotSame(t, first, third)
	assert.True(t, first.(*fakeEngine).closed, "previous engine must be closed")
	assert.Len(t, opener.opens, 2)

	key, ok := cache.Loaded()
	assert.True(t, ok)
	assert.Equal(t, "12B", key.Parameters)
}

func TestCache_DeviceChangeReopens(t *testing.T) {
	opener := &recordingOpener{}
	cache := New("/models", opener)

	_, err := cache.Get(context.Background(), gemma)
	require.NoError(t, err)
	cpu := gemma
	cpu.Device = "CPU"
	_, err = cache.Get(context.Background(), cpu)
	require.NoError(t, err)

	assert.Equal(t, []string{"GPU", "CPU"}, opener.devices)
}

func TestCache_LoadFailureWrapped(t *testing.T) {
	opener := &recordingOpener{err: errors.New("no such model")}
	cache := New("/models", opener)

	_, err := cache.Get(context.Background(), gemma)
	require.Error(t, err)
	assert.True(t, engine.IsLoadError(err))

	_, ok := cache.Loaded()
	assert.False(t, ok)

	// Existing LoadErrors are passed through unchanged.
	le := &engine.LoadError{Dir: "d", Device: "GPU", Err: engine.ErrManifestMissing}
	opener.err = le
	_, err = cache.Get(context.Background(), gemma)
	assert.Same(t, le, err)
}

func TestCache_FailedSwitchDropsOldEngine(t *testing.T) {
	opener := &recordingOpener{}
	cache := New("/models", opener)

	first, err := cache.Get(context.Background(), gemma)
	require.NoError(t, err)

	opener.err = errors.New("boom")
	other := gemma
	other.Model = "Phi 4"
	_, err = cache.Get(context.Background(), other)
	require.Error(t, err)
	assert.True(t, first.(*fakeEngine).closed)

	_, ok := cache.Loaded()
	assert.False(t, ok)
}

func TestCache_ConcurrentGetOpensOnce(t *testing.T) {
	opener := &recordingOpener{}
	cache := New("/models", opener)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(context.Background(), gemma)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, opener.opens, 1)
}

func TestCache_Close(t *testing.T) {
	cache := New("/models", &recordingOpener{})
	eng, err := cache.Get(context.Background(), gemma)
	require.NoError(t, err)

	require.NoError(t, cache.Close())
	assert.True(t, eng.(*fakeEngine).closed)
	require.NoError(t, cache.Close())
}
