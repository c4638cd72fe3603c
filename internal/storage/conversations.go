// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/commentsense/sense-tui/internal/model"
)

// MaxConversations limits stored conversations. Oldest are pruned on save.
const MaxConversations = 100

// ConversationMeta contains metadata for listing conversations.
type ConversationMeta struct {
	ID           string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// =============================================================================
// SAVE
// =============================================================================

// SaveConversation persists a conversation and its messages in one
// transaction, replacing any prior snapshot.
func (s *Store) SaveConversation(conv *model.Conversation) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO conversations (id, title, chat_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			chat_id = excluded.chat_id,
			updated_at = excluded.updated_at`,
		conv.ID, conv.Title, conv.ChatID, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return err
	}

	// Replace messages wholesale; snapshots are small and this keeps the
	// on-disk order authoritative.
	if _, err := tx.Exec("DELETE FROM messages WHERE conversation_id = ?", conv.ID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO messages
		(id, conversation_id, seq, role, content, tool_name, tool_input, tool_result, is_success, feedback_sent, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, msg := range conv.Messages {
		if msg.IsStreaming {
			// An in-flight message is not durable state.
			continue
		}
		_, err := stmt.Exec(msg.ID, conv.ID, i, msg.Role.String(), msg.Content,
			msg.ToolName, msg.ToolInput, msg.ToolResult,
			boolToInt(msg.IsSuccess), boolToInt(msg.FeedbackSent), msg.Timestamp)
		if err != nil {
			return err
		}
	}

	if err := pruneConversations(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// pruneConversations deletes the oldest conversations beyond the limit.
func pruneConversations(tx *sql.Tx) error {
	_, err := tx.Exec(`DELETE FROM conversations WHERE id IN (
		SELECT id FROM conversations
		ORDER BY updated_at DESC
		LIMIT -1 OFFSET ?)`, MaxConversations)
	return err
}

// =============================================================================
// LOAD
// =============================================================================

// LoadConversation loads a conversation with its messages.
func (s *Store) LoadConversation(id string) (*model.Conversation, error) {
	conv := &model.Conversation{ID: id}
	err := s.db.QueryRow(
		"SELECT title, chat_id, created_at, updated_at FROM conversations WHERE id = ?", id).
		Scan(&conv.Title, &conv.ChatID, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT id, role, content, tool_name, tool_input, tool_result, is_success, feedback_sent, timestamp
		FROM messages WHERE conversation_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var msg model.Message
		var role string
		var isSuccess, feedbackSent int
		err := rows.Scan(&msg.ID, &role, &msg.Content, &msg.ToolName,
			&msg.ToolInput, &msg.ToolResult, &isSuccess, &feedbackSent, &msg.Timestamp)
		if err != nil {
			return nil, err
		}
		msg.Role = model.Role(role)
		msg.IsSuccess = isSuccess != 0
		msg.FeedbackSent = feedbackSent != 0
		conv.Messages = append(conv.Messages, &msg)
	}
	return conv, rows.Err()
}

// ListConversations returns metadata for all conversations, most recently
// updated first.
func (s *Store) ListConversations() ([]ConversationMeta, error) {
	rows, err := s.db.Query(`SELECT c.id, c.title, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		FROM conversations c
		ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []ConversationMeta
	for rows.Next() {
		var meta ConversationMeta
		err := rows.Scan(&meta.ID, &meta.Title, &meta.CreatedAt, &meta.UpdatedAt, &meta.MessageCount)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(id string) error {
	result, err := s.db.Exec("DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
