// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the chatbots settings file.
//
// The file is TOML and lives at $CHATBOTS_HOME/config.toml (default
// ~/.chatbots/config.toml). Keys missing from the file take their default
// values; a missing file means all defaults.
//
// # Key Types
//
//   - Config: the whole file plus the home directory paths resolve against
//   - SettingsConfig: sidebar, model, parameters, quantization and device
//   - ValidateErrors: every invalid field found by Validate
//
// # Configuration Precedence
//
//   - Environment variables (CHATBOTS_*)
//   - $CHATBOTS_HOME/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	cache := pipeline.New(cfg.ModelsDir(), engine.ManifestOpener{})
//	eng, err := cache.Get(ctx, cfg.PipelineSettings())
//
// Settings can be read and written by dotted key or by display name:
//
//	_ = cfg.Set("Device", "CPU")
//	v, _ := cfg.Get("settings.device")
package config
