// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbots-tui/internal/session"
	"github.com/jeranaias/chatbots-tui/internal/transcript"
	"github.com/jeranaias/chatbots-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE
// =============================================================================

// Role identifies who wrote a message.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
	// RoleError is a display-only bubble for failures outside a reply, such
	// as a transcript write that failed.
	RoleError
)

// Message is one bubble in the conversation view.
type Message struct {
	Role    Role
	Content string

	// Streaming marks the reply that is still being generated.
	Streaming bool
}

// FromEntries converts replayed transcript records into messages. The title
// record is not shown.
func FromEntries(entries []transcript.Entry) []Message {
	msgs := make([]Message, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case transcript.KindUser:
			msgs = append(msgs, Message{Role: RoleUser, Content: e.Text})
		case transcript.KindAssistant:
			msgs = append(msgs, Message{Role: RoleAssistant, Content: e.Text})
		}
	}
	return msgs
}

// IsFailedReply reports whether an assistant message is a failure shown in
// place of a reply.
func (m Message) IsFailedReply() bool {
	return m.Role == RoleAssistant && strings.HasPrefix(m.Content, session.ErrorPrefix)
}

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one message at a given width.
type MessageBubble struct {
	Message Message
	Width   int

	theme *styles.Theme
	md    Markdown
}

// NewMessageBubble creates a bubble for msg.
func NewMessageBubble(msg Message, theme *styles.Theme, md Markdown) *MessageBubble {
	return &MessageBubble{
		Message: msg,
		Width:   80,
		theme:   theme,
		md:      md,
	}
}

// SetWidth sets the bubble width
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the message bubble
func (b *MessageBubble) View() string {
	switch b.Message.Role {
	case RoleUser:
		return b.renderUserBubble()
	case RoleError:
		return b.renderErrorBubble()
	default:
		return b.renderAssistantBubble()
	}
}

// ==========================================================================
// USER BUBBLE - Blue tones, right-aligned
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	maxContentWidth := b.Width * 3 / 4
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}

	content := b.Message.Content
	style := b.theme.UserBubble
	if lipgloss.Width(content) > maxContentWidth-2 {
		style = style.Width(maxContentWidth)
	}
	bubble := style.Render(content)

	label := b.theme.RoleLabel.Render("you")
	block := lipgloss.JoinVertical(lipgloss.Right, label, bubble)

	return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, block)
}

// ==========================================================================
// ASSISTANT BUBBLE - Markdown with a violet rule on the left
// ==========================================================================

func (b *MessageBubble) renderAssistantBubble() string {
	md := b.md
	md.Width = b.Width - 4
	if md.Width < 20 {
		md.Width = 20
	}

	content := md.Render(b.Message.Content)
	if b.Message.Streaming {
		content += b.theme.Spinner.Render(styles.TypingCursor[0])
	}

	style := b.theme.AssistantBubble
	if b.Message.IsFailedReply() {
		style = style.BorderForeground(styles.Rose)
	}

	label := b.theme.RoleLabel.Render("bot")
	return lipgloss.JoinVertical(lipgloss.Left, label, style.Render(content))
}

// ==========================================================================
// ERROR BUBBLE
// ==========================================================================

func (b *MessageBubble) renderErrorBubble() string {
	width := b.Width - 4
	if width < 20 {
		width = 20
	}
	text := styles.StatusIndicators.Error + " " + b.Message.Content
	style := b.theme.ErrorBubble
	if lipgloss.Width(text) > width-2 {
		style = style.Width(width)
	}
	return style.Render(text)
}

// =============================================================================
// CONVERSATION
// =============================================================================

// RenderConversation renders every message separated by a blank line.
func RenderConversation(msgs []Message, width int, theme *styles.Theme, md Markdown) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		bubble := NewMessageBubble(msg, theme, md)
		bubble.SetWidth(width)
		parts = append(parts, bubble.View())
	}
	return strings.Join(parts, "\n\n")
}
