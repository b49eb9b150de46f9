// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session runs reply generation in the background and delivers the
// results to the foreground.
//
// A window owns one Manager. The Manager starts at most one Session at a
// time; each Session streams tokens from the engine on its own goroutine and
// hands every snapshot of the accumulated text to a Dispatcher, which runs
// the callbacks on the foreground (the Bubble Tea update loop or the REPL's
// Queue). When the reply is complete it is appended to the transcript.
//
// # Lifecycle
//
//	Idle -> Running -> Completed | Failed | Abandoned
//
// Abandon is called when the user leaves the chat a reply belongs to. Once it
// returns, none of that session's callbacks run and its reply is never
// written. A failed generation shows "Error: <message>" as the reply and is
// not written either.
//
// # Key Types
//
//   - Manager: single-flight owner of the current Session
//   - Session: one generation with its status and accumulated text
//   - Callbacks: OnPartial, OnComplete and OnError, run on the foreground
//   - Dispatcher / Queue: marshal work from background goroutines
//
// # Usage
//
//	mgr := session.NewManager(session.Config{
//	    Cache:      pipeline.New(modelsDir, engine.ManifestOpener{}),
//	    Log:        transcript.New(chatsDir),
//	    Dispatcher: queue,
//	    Settings:   cfg.PipelineSettings(),
//	})
//	chatID, s, err := mgr.Submit(chatID, input, session.Callbacks{
//	    OnPartial: func(text string) { view.SetReply(text) },
//	})
package session
