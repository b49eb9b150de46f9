// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the chatbots command line.
//
// Running chatbots with no command opens the full-screen chat window. The
// other commands work on the same config and chat files without it:
//
//	chatbots chat            line-based chat with streamed replies
//	chatbots list            saved chats, newest first
//	chatbots show <id>       print a chat
//	chatbots delete <id>...  delete chats
//	chatbots export <id>     export as Markdown, JSON or terminal text
//	chatbots config ...      show, get or set settings
//	chatbots models [init]   list or create model directories
//
// # Key Types
//
//   - app: loaded config, transcript log and flag overrides shared by every
//     command
//   - lineReader: line input for the chat command, backed by liner on a
//     terminal and a scanner otherwise
//
// # Errors
//
// Commands return typed errors (NotFoundError, UsageError, ConfigError,
// TTYRequiredError). Execute prints the error once and GetExitCode maps it
// to the process exit status.
//
// # Usage
//
//	func main() {
//		os.Exit(cli.GetExitCode(cli.Execute()))
//	}
package cli
