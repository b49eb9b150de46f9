// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/jeranaias/chatbots-tui/internal/logging"
	"github.com/jeranaias/chatbots-tui/internal/ollama"
)

// =============================================================================
// OLLAMA BACKEND
// =============================================================================

// OllamaEngine serves a model from an Ollama server.
type OllamaEngine struct {
	client  *ollama.Client
	model   string
	options *ollama.Options
	closed  atomic.Bool
}

// Model returns the server-side model name.
func (e *OllamaEngine) Model() string {
	return e.model
}

// Generate implements Engine.
func (e *OllamaEngine) Generate(ctx context.Context, prompt string, cfg GenerationConfig, fn StreamFunc) (string, error) {
	if e.closed.Load() {
		return "", &GenerationError{Err: ErrEngineClosed}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := *e.options
	opts.NumPredict = maxTokens(cfg)

	var text strings.Builder
	stopped := false
	err := e.client.GenerateStream(ctx, ollama.GenerateRequest{
		Model:   e.model,
		Prompt:  prompt,
		Options: &opts,
	}, func(chunk ollama.StreamChunk) {
		if chunk.Done {
			logging.For("engine").Debug("reply finished", "model", chunk.Model, "reason", chunk.DoneReason,
				"tokens", chunk.CompletionTokens, "tokens_per_sec", chunk.TokensPerSecond())
		}
		if stopped || chunk.Content == "" {
			return
		}
		text.WriteString(chunk.Content)
		if fn != nil && fn(chunk.Content) {
			stopped = true
			cancel()
		}
	})

	if stopped {
		return text.String(), nil
	}
	if err != nil {
		return text.String(), &GenerationError{Err: err}
	}
	return text.String(), nil
}

// Close marks the engine closed. The server keeps its own model cache.
func (e *OllamaEngine) Close() error {
	e.closed.Store(true)
	return nil
}

// =============================================================================
// ECHO BACKEND
// =============================================================================

// EchoEngine replies with the prompt itself, one word per delta. It needs no
// server, so a model directory can be exercised end to end offline.
type EchoEngine struct{}

// Generate implements Engine.
func (EchoEngine) Generate(ctx context.Context, prompt string, cfg GenerationConfig, fn StreamFunc) (string, error) {
	var text strings.Builder
	limit := maxTokens(cfg)

	for i, word := range strings.SplitAfter(prompt, " ") {
		if i >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return text.String(), &GenerationError{Err: err}
		}
		text.WriteString(word)
		if fn != nil && fn(word) {
			break
		}
	}
	return text.String(), nil
}

func maxTokens(cfg GenerationConfig) int {
	if cfg.MaxNewTokens <= 0 {
		return DefaultMaxNewTokens
	}
	return cfg.MaxNewTokens
}
