// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript persists chats as append-only, human-readable text files.
//
// Every chat is one file, <chats_dir>/<id>.txt, holding one record per line:
//
//	TITLE: <title>
//	U: <user message>
//	B: <assistant reply>
//
// The id is the creation timestamp (20261019_142501), so lexical order of
// file names is creation order. Records are never rewritten; a chat only
// grows until it is deleted.
//
// # Key Types
//
//   - Log: reads and writes the chat files under one directory
//   - Entry: one replayed record (title, user or assistant)
//   - Summary: sidebar row data for one chat
//   - Watcher: fsnotify watch that reports external changes to the directory
//   - IOError: wraps every filesystem failure with the operation and path
//
// # Usage
//
//	log := transcript.New(chatsDir)
//	id, err := log.CreateChat(time.Now(), transcript.Title(firstMessage))
//	err = log.AppendUser(id, firstMessage)
//
//	for _, e := range log.Replay(id) {
//	    // render e.Kind / e.Text
//	}
//
// # Format Caveats
//
// Text is written verbatim with no escaping. A message that itself starts
// with "U: " or contains a newline cannot be told apart on replay, so
// callers flatten assistant replies to a single line before appending.
// Lines with no known prefix are ignored on replay.
package transcript
