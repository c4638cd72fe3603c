// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	chat_id    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL DEFAULT '',
	tool_name       TEXT NOT NULL DEFAULT '',
	tool_input      TEXT NOT NULL DEFAULT '',
	tool_result     TEXT NOT NULL DEFAULT '',
	is_success      INTEGER NOT NULL DEFAULT 0,
	feedback_sent   INTEGER NOT NULL DEFAULT 0,
	timestamp       TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages(conversation_id, seq);
`

// =============================================================================
// STORE
// =============================================================================

// Store wraps the local SQLite database holding session credentials and
// conversation history.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database location under the user's state
// directory.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "state.db"
	}
	return filepath.Join(homeDir, ".sense", "state.db")
}

// Open opens (creating if necessary) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CREDENTIALS (auth.TokenStore)
// =============================================================================

// Fixed credential keys. The pair always moves together.
const (
	keyAccessToken  = "token"
	keyRefreshToken = "refresh_token"
)

// Tokens returns the persisted token pair. A pair with either half missing
// is treated as absent.
func (s *Store) Tokens() (string, string, error) {
	rows, err := s.db.Query(
		"SELECT key, value FROM credentials WHERE key IN (?, ?)",
		keyAccessToken, keyRefreshToken)
	if err != nil {
		return "", "", err
	}
	defer rows.Close()

	var access, refresh string
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return "", "", err
		}
		switch key {
		case keyAccessToken:
			access = value
		case keyRefreshToken:
			refresh = value
		}
	}
	if err := rows.Err(); err != nil {
		return "", "", err
	}

	if access == "" || refresh == "" {
		return "", "", ErrNotFound
	}
	return access, refresh, nil
}

// SetTokens writes both tokens in one transaction.
func (s *Store) SetTokens(access, refresh string) error {
	if access == "" || refresh == "" {
		return errors.New("refusing to store partial token pair")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.Exec(upsert, keyAccessToken, access); err != nil {
		return err
	}
	if _, err := tx.Exec(upsert, keyRefreshToken, refresh); err != nil {
		return err
	}
	return tx.Commit()
}

// Clear removes both tokens in one transaction.
func (s *Store) Clear() error {
	_, err := s.db.Exec(
		"DELETE FROM credentials WHERE key IN (?, ?)",
		keyAccessToken, keyRefreshToken)
	return err
}
