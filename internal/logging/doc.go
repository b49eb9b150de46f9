// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging owns the process-wide structured logger.
//
// The TUI owns the terminal, so log output normally goes to a file under
// the chatbots home directory rather than stderr.
//
// # Key Types
//
//   - Logger: the global *log.Logger every package writes through
//
// # Usage
//
//	closer, err := logging.Configure(cfg.Log.Level, cfg.Log.File)
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//
//	logging.For("transcript").Warn("skipping unreadable chat", "path", path, "err", err)
package logging
