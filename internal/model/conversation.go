// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/commentsense/sense-tui/internal/api"
)

// MaxMessages is the maximum number of messages to keep in conversation history.
// When exceeded, old messages are pruned to prevent unbounded memory growth.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat conversation with history and metadata.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// ChatID is the backend thread identifier sent as X-Chat-ID.
	ChatID string `json:"chat_id,omitempty"`

	// Messages
	Messages []*Message `json:"messages"`
}

// NewConversation creates a new conversation with a generated ID.
func NewConversation() *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage adds a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.pruneOldMessages()
}

// AddUserMessage creates and adds a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and adds a streaming assistant message.
func (c *Conversation) AddAssistantMessage() *Message {
	msg := NewAssistantMessage()
	c.AddMessage(msg)
	return msg
}

// AddToolMessage creates and adds a tool result message.
func (c *Conversation) AddToolMessage(toolName, input, result string, ok bool) *Message {
	msg := NewToolMessage(toolName, input, result, ok)
	c.AddMessage(msg)
	return msg
}

// RemoveMessage removes the message with the given ID, if present.
func (c *Conversation) RemoveMessage(id string) {
	for i, msg := range c.Messages {
		if msg.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.UpdatedAt = time.Now()
			return
		}
	}
}

// AddSystemMessage creates and adds a system notice.
func (c *Conversation) AddSystemMessage(content string) *Message {
	msg := NewMessage(RoleSystem, content)
	c.AddMessage(msg)
	return msg
}

// ClearHistory removes all messages but keeps the conversation identity
// and backend thread ID.
func (c *Conversation) ClearHistory() {
	c.Messages = c.Messages[:0]
	c.Title = ""
	c.UpdatedAt = time.Now()
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetLastAssistantMessage returns the most recent assistant message.
func (c *Conversation) GetLastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// GetMessageByID returns a message by its ID.
func (c *Conversation) GetMessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// updateTitle derives the title from the first user message.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			title := strings.ReplaceAll(msg.Content, "\n", " ")
			runes := []rune(title)
			if len(runes) > 50 {
				title = string(runes[:47]) + "..."
			}
			c.Title = title
			return
		}
	}
}

// pruneOldMessages drops the oldest messages beyond MaxMessages.
func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	excess := len(c.Messages) - MaxMessages
	c.Messages = append([]*Message(nil), c.Messages[excess:]...)
}

// =============================================================================
// API CONVERSION
// =============================================================================

// ToAPIMessages converts the conversation to the chat request payload.
// Tool messages and empty streaming placeholders are skipped; the backend
// reconstructs tool context itself.
func (c *Conversation) ToAPIMessages() []api.ChatMessage {
	messages := make([]api.ChatMessage, 0, len(c.Messages))
	for _, msg := range c.Messages {
		switch msg.Role {
		case RoleUser, RoleAssistant:
			content := msg.StreamingContent()
			if strings.TrimSpace(content) == "" {
				continue
			}
			messages = append(messages, api.TextMessage(msg.Role.String(), content))
		}
	}
	return messages
}
