// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// Only the calls the chat engine needs are implemented: a health check,
// model lookup and streaming /api/generate.
//
// # Key Types
//
//   - Client: HTTP client for one Ollama server
//   - GenerateRequest: prompt, model and Options for /api/generate
//   - StreamReader: NDJSON decoder for streaming responses
//   - ClientError: typed error (not running, timeout, model not found, ...)
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url})
//	if err := client.CheckRunning(ctx); err != nil {
//	    return err
//	}
//	err := client.GenerateStream(ctx, ollama.GenerateRequest{
//	    Model:  "gemma3:4b",
//	    Prompt: "Hello",
//	}, func(chunk ollama.StreamChunk) {
//	    fmt.Print(chunk.Content)
//	})
package ollama
