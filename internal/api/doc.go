// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the Comment Sense backend.
//
// The backend is treated as an opaque service; this package covers the
// authentication endpoints (signup, login, refresh, me, set-chat-id), the
// evaluation-file endpoints (upload, progress, delete), feedback submission,
// and the streaming chat endpoint.
//
// All calls take a context.Context and return wrapped sentinel errors so
// callers can branch with errors.Is. Credentials are never logged; tokens
// appear in logs only as SHA-256 fingerprints.
package api
