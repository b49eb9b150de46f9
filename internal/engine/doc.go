// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine defines the boundary to the inference engine.
//
// An Engine is an opened model: it turns a prompt into a stream of text
// deltas. Engines are opened from a model directory by an Opener; the
// default ManifestOpener reads <dir>/model.toml to decide which backend
// serves the directory.
//
// # Key Types
//
//   - Engine: Generate(ctx, prompt, cfg, fn) streams deltas to fn
//   - Opener / OpenerFunc: open a model directory for a device
//   - ManifestOpener: model.toml driven opener (ollama and echo backends)
//   - LoadError: the model could not be opened
//   - GenerationError: the model failed while producing text
//
// # Manifest
//
//	backend   = "ollama"                  # ollama | echo
//	name      = "gemma3:4b"               # model name on the server
//	url       = "http://127.0.0.1:11434"  # optional
//	num_ctx   = 8192                      # optional
//	autostart = false                     # start "ollama serve" if needed
//
// # Usage
//
//	eng, err := engine.ManifestOpener{}.Open(ctx, dir, "GPU")
//	text, err := eng.Generate(ctx, prompt, engine.GenerationConfig{MaxNewTokens: 1024},
//	    func(delta string) bool {
//	        fmt.Print(delta)
//	        return false // keep going
//	    })
package engine
