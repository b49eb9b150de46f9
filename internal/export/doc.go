// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes saved chats out of the transcript format.
//
// # Key Types
//
//   - Conversation: a chat replayed from its transcript
//   - Exporter: converts a Conversation to bytes
//   - Format: export format name (md, json, ansi)
//   - Options: export configuration options
//
// # Supported Formats
//
//   - Markdown: human-readable, with optional front matter
//   - JSON: machine-readable
//   - ANSI: Markdown rendered for a terminal by glamour
//
// # Usage
//
//	conv, err := export.FromTranscript(log, "20250101_120000")
//	if err != nil {
//	    return err
//	}
//	exporter, err := export.New(export.FormatMarkdown, nil)
//	if err != nil {
//	    return err
//	}
//	path, err := export.ToFile(conv, exporter, &export.Options{OutputDir: "."})
package export
