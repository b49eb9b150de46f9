// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual pieces of the chatbots TUI.
//
// Components are plain structs with a View method; the chat model owns
// their state and re-renders them on every update.
//
// # Key Types
//
//   - Markdown: styles assistant text span by span, highlighting fenced code
//   - MessageBubble: one user, assistant or error message
//   - Sidebar: the chat list with its new-chat row
//   - StatusBar: status, model and key hints
//
// # Usage
//
//	md := components.NewMarkdown(theme)
//	view := components.RenderConversation(msgs, width, theme, md)
package components
