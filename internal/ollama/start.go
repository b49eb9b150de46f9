// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/chatbots-tui/internal/logging"
)

// =============================================================================
// SERVER AUTOSTART
// =============================================================================

// EnsureRunning checks that the server answers and, if it does not, starts
// "ollama serve" in the background and waits for it to come up.
//
// Nothing is printed: the chat window owns the terminal, so progress goes to
// the log.
func (c *Client) EnsureRunning(ctx context.Context) error {
	if err := c.CheckRunning(ctx); err == nil {
		return nil
	}

	path, err := findOllamaExecutable()
	if err != nil {
		return &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running and could not be found", Cause: err}
	}

	cmd := serveCommand(path)
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: fmt.Sprintf("failed to start Ollama (path: %s)", path), Cause: err}
	}
	// The server outlives this process.
	if cmd.Process != nil {
		_ = cmd.Process.Release()
	}

	log := logging.For("ollama")
	log.Info("starting server", "path", path)
	started := time.Now()

	err = c.waitReady(ctx, startupTimeout)
	if err != nil {
		return &ClientError{
			Type:    ErrTypeNotRunning,
			Message: fmt.Sprintf("Ollama started but not responding after %s (path: %s)", startupTimeout, path),
			Cause:   err,
		}
	}
	log.Info("server ready", "elapsed", time.Since(started).Round(100*time.Millisecond))
	return nil
}

// waitReady polls CheckRunning until it succeeds, ctx ends or timeout passes.
func (c *Client) waitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for time.Now().Before(deadline) {
		checkCtx, cancel := context.WithTimeout(ctx, time.Second)
		lastErr = c.CheckRunning(checkCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return lastErr
}
