// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"strings"
)

// DefaultMaxNewTokens caps a reply when no limit is configured.
const DefaultMaxNewTokens = 1024

// GenerationConfig holds per-call generation limits.
type GenerationConfig struct {
	MaxNewTokens int
}

// StreamFunc receives each text delta in order. Returning true asks the
// engine to stop; it stops before delivering another delta.
type StreamFunc func(delta string) (stop bool)

// Engine is an opened model.
type Engine interface {
	// Generate streams the reply to prompt through fn and returns the full
	// text produced. A stop requested by fn is not an error: the text so
	// far is returned with a nil error. Failures are *GenerationError.
	Generate(ctx context.Context, prompt string, cfg GenerationConfig, fn StreamFunc) (string, error)
}

// Opener opens the model stored in dir on device ("GPU" or "CPU").
type Opener interface {
	Open(ctx context.Context, dir, device string) (Engine, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, dir, device string) (Engine, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, dir, device string) (Engine, error) {
	return f(ctx, dir, device)
}

// =============================================================================
// DEVICES
// =============================================================================

// Supported devices.
const (
	DeviceGPU = "GPU"
	DeviceCPU = "CPU"
)

// NormalizeDevice upper-cases a configured device name.
func NormalizeDevice(device string) string {
	return strings.ToUpper(strings.TrimSpace(device))
}

// ValidDevice reports whether device names a supported device.
func ValidDevice(device string) bool {
	switch NormalizeDevice(device) {
	case DeviceGPU, DeviceCPU:
		return true
	}
	return false
}
