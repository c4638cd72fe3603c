// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable client state in a local SQLite database.
//
// Two concerns live here:
//
//   - Session credentials: the access/refresh token pair under the fixed
//     keys "token" and "refresh_token". The pair is written and cleared in
//     a single transaction, so a reader can never observe one token
//     without the other. Store satisfies auth.TokenStore.
//   - Conversation history: chat threads and their messages, so a session
//     survives restarts.
//
// # Usage
//
//	store, err := storage.Open(storage.DefaultPath())
//	defer store.Close()
//
//	err = store.SetTokens(access, refresh)
//	convs, err := store.ListConversations()
//
// # Storage Location
//
// The database lives at ~/.sense/state.db by default.
package storage
