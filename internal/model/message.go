// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Streaming state (not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`

	// For tool messages (vector search, teaching-material lookup, fetch)
	ToolName   string `json:"tool_name,omitempty"`
	ToolInput  string `json:"tool_input,omitempty"`
	ToolResult string `json:"tool_result,omitempty"`
	IsSuccess  bool   `json:"is_success,omitempty"`

	// Feedback already submitted for this assistant message
	FeedbackSent bool `json:"feedback_sent,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an empty assistant message in streaming state.
func NewAssistantMessage() *Message {
	msg := NewMessage(RoleAssistant, "")
	msg.IsStreaming = true
	return msg
}

// NewToolMessage creates a tool message recording an assistant tool call.
func NewToolMessage(toolName, input, result string, ok bool) *Message {
	msg := NewMessage(RoleTool, "")
	msg.ToolName = toolName
	msg.ToolInput = input
	msg.ToolResult = result
	msg.IsSuccess = ok
	return msg
}

// =============================================================================
// STREAMING
// =============================================================================

// AppendStream appends a streamed delta to the in-progress content.
func (m *Message) AppendStream(delta string) {
	m.streamContent.WriteString(delta)
}

// StreamingContent returns the content streamed so far.
func (m *Message) StreamingContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// FinishStreaming merges streamed content into Content and clears the
// streaming state. Safe to call on a message that never streamed.
func (m *Message) FinishStreaming() {
	if m.streamContent.Len() > 0 {
		m.Content = m.streamContent.String()
		m.streamContent.Reset()
	}
	m.IsStreaming = false
}

// IsEmpty reports whether the message has no visible content.
func (m *Message) IsEmpty() bool {
	return strings.TrimSpace(m.StreamingContent()) == "" && m.ToolName == ""
}
