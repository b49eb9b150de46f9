// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the chatbots packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunesNoEllipsis: UTF-8 safe truncation (chat titles)
//   - TruncateWidth: display-width truncation for sidebar rows
//   - FlattenLine: collapse embedded newlines for single-line records
//   - NormalizeInput: NFC normalization of user input
//
// File Operations:
//   - AtomicWriteFile: crash-safe replace that keeps an existing file's mode
//
// # Usage
//
//	title := util.TruncateRunesNoEllipsis(firstMessage, 50)
//	line := util.FlattenLine(reply)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
