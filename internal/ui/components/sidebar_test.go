// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/ui/styles"
	"github.com/commentsense/sense-tui/internal/upload"
)

func TestSidebarHiddenByDefault(t *testing.T) {
	s := NewSidebar(styles.NewTheme())
	if s.IsVisible() {
		t.Error("new sidebar should be hidden")
	}
	if s.View() != "" {
		t.Error("hidden sidebar should render empty string")
	}

	s.Toggle()
	if !s.IsVisible() {
		t.Error("Toggle() should show the sidebar")
	}
}

func TestSidebarEmptyState(t *testing.T) {
	s := NewSidebar(styles.NewTheme())
	s.SetSize(30, 20)
	s.Toggle()

	if !strings.Contains(s.View(), "No files uploaded") {
		t.Error("empty sidebar should show the empty state")
	}
}

func TestSidebarFileList(t *testing.T) {
	s := NewSidebar(styles.NewTheme())
	s.SetSize(34, 20)
	s.Toggle()

	s.AddFile(FileEntry{
		ID:       "f1",
		Name:     "evals_fall.csv",
		Size:     48 * 1024,
		Uploaded: time.Now(),
		Status:   api.StatusCompleted,
	})
	s.AddFile(FileEntry{
		ID:     "f2",
		Name:   "evals_spring.pdf",
		Size:   2 * 1024 * 1024,
		Status: api.StatusProcessing,
	})

	view := s.View()
	if !strings.Contains(view, "evals_fall.csv") {
		t.Error("sidebar should list uploaded files")
	}
	if !strings.Contains(view, "evals_spring.pdf") {
		t.Error("sidebar should list processing files")
	}
	// Processing files get the pending indicator.
	if !strings.Contains(view, styles.StatusIndicators.Pending) {
		t.Error("processing file should show the pending indicator")
	}
}

func TestSidebarSelection(t *testing.T) {
	s := NewSidebar(styles.NewTheme())
	s.AddFile(FileEntry{ID: "f1", Name: "a.csv"})
	s.AddFile(FileEntry{ID: "f2", Name: "b.csv"})

	sel, ok := s.Selected()
	if !ok || sel.ID != "f1" {
		t.Errorf("initial selection = %v, want f1", sel.ID)
	}

	s.MoveDown()
	sel, _ = s.Selected()
	if sel.ID != "f2" {
		t.Errorf("after MoveDown selection = %v, want f2", sel.ID)
	}

	s.MoveDown() // clamped at the end
	sel, _ = s.Selected()
	if sel.ID != "f2" {
		t.Error("MoveDown should clamp at the last entry")
	}

	s.MoveUp()
	sel, _ = s.Selected()
	if sel.ID != "f1" {
		t.Errorf("after MoveUp selection = %v, want f1", sel.ID)
	}
}

func TestSidebarRemoveFileClampsSelection(t *testing.T) {
	s := NewSidebar(styles.NewTheme())
	s.AddFile(FileEntry{ID: "f1", Name: "a.csv"})
	s.AddFile(FileEntry{ID: "f2", Name: "b.csv"})
	s.MoveDown()

	s.RemoveFile("f2")
	sel, ok := s.Selected()
	if !ok || sel.ID != "f1" {
		t.Error("removing the selected last entry should move selection up")
	}

	s.RemoveFile("f1")
	if _, ok := s.Selected(); ok {
		t.Error("empty sidebar should have no selection")
	}
}

func TestSidebarUploadBar(t *testing.T) {
	s := NewSidebar(styles.NewTheme())
	s.SetSize(34, 20)
	s.Toggle()

	job := upload.NewJob("evals.csv")
	job.DisplayedPercent = 42
	job.Message = "Parsing responses"
	s.SetJob(job)

	view := s.View()
	if !strings.Contains(view, "evals.csv") {
		t.Error("upload bar should show the file name")
	}
	if !strings.Contains(view, "Parsing responses") {
		t.Error("upload bar should show the latest server message")
	}

	s.SetJob(nil)
	if s.Job() != nil {
		t.Error("SetJob(nil) should clear the active job")
	}
}
