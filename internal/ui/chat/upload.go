// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file wires the upload flow: client-side validation, the multipart
// upload request, and the progress task whose snapshots drive the sidebar's
// upload bar.
package chat

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/upload"
	"github.com/commentsense/sense-tui/internal/ui/components"
)

// =============================================================================
// UPLOAD COMMANDS
// =============================================================================

// startUploadCmd validates the file locally and, only if it passes, creates
// the job. No network happens here: the job's pre-generated identifier lets
// the progress task and the upload request start together.
func (m *Model) startUploadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		name := filepath.Base(path)

		info, err := os.Stat(path)
		if err != nil {
			return UploadStartedMsg{FileName: name, Path: path, Error: err}
		}
		// A rejected file never reaches the network.
		if err := upload.ValidateFile(name, info.Size()); err != nil {
			return UploadStartedMsg{FileName: name, Path: path, Error: err}
		}

		return UploadStartedMsg{Job: upload.NewJob(name), FileName: name, Path: path}
	}
}

// submitUploadCmd issues the multipart upload request. The backend
// processes the document inside this request, so the progress task running
// alongside it is what observes the intermediate states.
func (m *Model) submitUploadCmd(job *upload.Job, path string) tea.Cmd {
	client := m.client
	guard := m.guard
	fileID := job.FileID
	name := job.FileName
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return UploadSubmittedMsg{FileID: fileID, Path: path, Error: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		token, err := guard.AccessToken(ctx)
		if err != nil {
			return UploadSubmittedMsg{FileID: fileID, Path: path, Error: err}
		}
		if _, err := client.Upload(ctx, token, fileID, name, f); err != nil {
			return UploadSubmittedMsg{FileID: fileID, Path: path, Error: err}
		}
		return UploadSubmittedMsg{FileID: fileID, Path: path}
	}
}

// waitForUploadSnapshot receives the next progress snapshot from the active
// task. The handler re-issues this command until the channel closes.
func waitForUploadSnapshot(task *upload.Task) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-task.Updates()
		if !ok {
			return UploadFinishedMsg{}
		}
		return UploadProgressMsg{Snapshot: snap}
	}
}

// =============================================================================
// UPLOAD HANDLERS
// =============================================================================

func (m Model) handleUploadStarted(msg UploadStartedMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.statusBar.SetStatus(components.StatusReady)
		path := msg.Path
		retry := func() tea.Msg { return retryUploadMsg{path: path} }
		m.toasts.AddToast(components.NewRetryableErrorToast(
			components.DefaultHintMatcher().Friendly(msg.Error), retry))
		return m, components.ToastTickCmd()
	}

	// The sidebar gets its own copy up front; the task goroutine owns and
	// mutates the job itself from here on.
	view := *msg.Job
	task, err := m.poller.Start(msg.Job)
	if err != nil {
		m.toasts.AddError(err.Error())
		return m, components.ToastTickCmd()
	}
	m.uploadTask = task
	m.sidebar.SetJob(&view)
	if !m.sidebar.IsVisible() {
		m.sidebar.Toggle()
	}
	m.statusBar.SetStatus(components.StatusUploading)
	return m.relayout(tea.Batch(
		waitForUploadSnapshot(task),
		m.submitUploadCmd(msg.Job, msg.Path),
	))
}

// handleUploadSubmitted tears the progress task down when the upload
// request itself failed; a successful submission needs nothing, the task
// polls through to the terminal sample on its own.
func (m Model) handleUploadSubmitted(msg UploadSubmittedMsg) (tea.Model, tea.Cmd) {
	if msg.Error == nil {
		return m, nil
	}
	if m.uploadTask != nil && m.uploadTask.FileID() == msg.FileID {
		m.uploadTask.Stop()
		m.uploadTask = nil
	}
	m.sidebar.SetJob(nil)
	m.statusBar.SetStatus(components.StatusReady)

	path := msg.Path
	retry := func() tea.Msg { return retryUploadMsg{path: path} }
	m.toasts.AddToast(components.NewRetryableErrorToast(
		components.DefaultHintMatcher().Friendly(msg.Error), retry))
	return m, components.ToastTickCmd()
}

// retryUploadMsg re-runs a failed upload from its toast action.
type retryUploadMsg struct {
	path string
}

func (m Model) handleUploadProgress(msg UploadProgressMsg) (tea.Model, tea.Cmd) {
	snap := msg.Snapshot

	// Mirror the snapshot into the sidebar's job copy.
	m.sidebar.SetJob(&upload.Job{
		FileID:           snap.FileID,
		FileName:         snap.FileName,
		Status:           snap.Status,
		ProgressPercent:  snap.Progress,
		DisplayedPercent: snap.Displayed,
		Message:          snap.Message,
		Stats:            snap.Stats,
	})

	if !snap.Terminal() {
		return m, waitForUploadSnapshot(m.uploadTask)
	}

	// Terminal snapshot: the task is winding down.
	m.statusBar.SetStatus(components.StatusReady)
	m.sidebar.SetJob(nil)

	if snap.Status == api.StatusError {
		reason := snap.Message
		if reason == "" && snap.Err != nil {
			reason = snap.Err.Error()
		}
		if reason == "" {
			reason = "processing failed"
		}
		m.toasts.AddError("Upload failed: " + reason)
		return m, tea.Batch(waitForUploadSnapshot(m.uploadTask), components.ToastTickCmd())
	}

	m.sidebar.AddFile(components.FileEntry{
		ID:       snap.FileID,
		Name:     snap.FileName,
		Uploaded: time.Now(),
		Status:   snap.Status,
	})
	m.toasts.AddSuccess(snap.FileName + " processed. Ask away!")
	return m, tea.Batch(waitForUploadSnapshot(m.uploadTask), components.ToastTickCmd())
}
