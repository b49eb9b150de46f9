// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline caches the opened inference engine.
//
// Opening a model is expensive, so the Cache keeps the last engine and
// reuses it until the model settings change. It holds at most one engine:
// switching models closes the previous one.
//
// # Usage
//
//	cache := pipeline.New(modelsDir, engine.ManifestOpener{})
//	eng, err := cache.Get(ctx, cfg.PipelineSettings())
package pipeline
