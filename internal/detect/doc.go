// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package detect finds the GPU a local model could run on.
//
// Detection shells out to vendor tools and never fails: a missing tool just
// means that vendor is skipped.
//
// Supported GPU Types:
//   - NVIDIA (via nvidia-smi)
//   - AMD (via rocm-smi on Linux)
//   - Apple Silicon (via system_profiler on macOS)
//
// # Usage
//
//	gpu := detect.GPU(ctx)
//	if msg := detect.DeviceWarning(cfg.Settings.Device, gpu); msg != "" {
//		log.Warn(msg)
//	}
package detect
