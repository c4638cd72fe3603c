// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat view.
// Messages are organized into the following categories:
//   - Streaming: flush ticks, completion, and errors
//   - Session: chat thread registration and session loss
//   - Upload: progress snapshots and completion
//   - Files: deletion results
//   - Stats: request-allowance events
//   - Feedback, persistence, and export results
package chat

import (
	"time"

	"github.com/commentsense/sense-tui/internal/stats"
	"github.com/commentsense/sense-tui/internal/upload"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamTickMsg drives the streaming flush loop at the render frame rate.
type StreamTickMsg struct {
	Time time.Time
}

// StreamCompleteMsg signals that the assistant turn finished cleanly.
type StreamCompleteMsg struct {
	MessageID string
}

// StreamErrorMsg signals a failure during streaming. Partial holds any
// content received before the failure.
type StreamErrorMsg struct {
	MessageID string
	Partial   string
	Error     error
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// ChatIDMsg delivers the backend thread identifier from set-chat-id.
type ChatIDMsg struct {
	ChatID string
	Error  error
}

// SessionLostMsg tells the application root that the session failed closed
// and the login view should take over.
type SessionLostMsg struct{}

// =============================================================================
// UPLOAD MESSAGES
// =============================================================================

// UploadStartedMsg reports the outcome of local validation. On success it
// carries the job, whose pre-generated identifier lets progress polling
// begin before the backend acknowledges the upload.
type UploadStartedMsg struct {
	Job      *upload.Job
	FileName string
	Path     string
	Error    error
}

// UploadSubmittedMsg reports the outcome of the upload request itself,
// which runs concurrently with the progress task.
type UploadSubmittedMsg struct {
	FileID string
	Path   string
	Error  error
}

// UploadProgressMsg delivers one smoothed progress snapshot.
type UploadProgressMsg struct {
	Snapshot upload.Snapshot
}

// UploadFinishedMsg signals that the progress task ended and its channel
// closed.
type UploadFinishedMsg struct{}

// =============================================================================
// FILE MESSAGES
// =============================================================================

// FileDeletedMsg reports the outcome of a file deletion.
type FileDeletedMsg struct {
	FileID string
	Name   string
	Error  error
}

// =============================================================================
// STATS MESSAGES
// =============================================================================

// StatsEventMsg delivers a request-allowance change from the stats store.
type StatsEventMsg struct {
	Event stats.Event
}

// =============================================================================
// FEEDBACK / PERSISTENCE / EXPORT
// =============================================================================

// FeedbackSentMsg reports the outcome of a feedback submission.
type FeedbackSentMsg struct {
	MessageID string
	Error     error
}

// ConversationSavedMsg reports the outcome of persisting the conversation.
type ConversationSavedMsg struct {
	Error error
}

// ExportCompleteMsg reports the outcome of a conversation export.
type ExportCompleteMsg struct {
	Path  string
	Error error
}

// LogoutMsg tells the application root that the user logged out on purpose.
type LogoutMsg struct{}
