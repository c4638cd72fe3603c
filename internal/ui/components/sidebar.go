// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the sense TUI.
package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/ui/styles"
	"github.com/commentsense/sense-tui/internal/upload"
)

// =============================================================================
// FILE SIDEBAR - uploaded evaluation documents
// =============================================================================

// FileEntry is an uploaded evaluation document shown in the sidebar.
type FileEntry struct {
	ID       string
	Name     string
	Size     int64
	Uploaded time.Time
	Status   string // api.Status* value
}

// Sidebar lists the files uploaded this session and renders the progress
// of the active upload job at the bottom.
type Sidebar struct {
	files    []FileEntry
	selected int
	visible  bool
	focused  bool

	// job is the in-flight upload, nil when idle. The poller owns its
	// smoothed DisplayedPercent; the sidebar just draws it.
	job *upload.Job

	width  int
	height int
	theme  *styles.Theme
}

// NewSidebar creates a hidden sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme}
}

// SetSize sets the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Toggle flips visibility.
func (s *Sidebar) Toggle() {
	s.visible = !s.visible
	if !s.visible {
		s.focused = false
	}
}

// IsVisible reports whether the sidebar is shown.
func (s *Sidebar) IsVisible() bool {
	return s.visible
}

// SetFocused moves keyboard focus to or from the sidebar.
func (s *Sidebar) SetFocused(focused bool) {
	s.focused = focused
}

// Focused reports whether the sidebar has keyboard focus.
func (s *Sidebar) Focused() bool {
	return s.focused
}

// Files returns the current entries.
func (s *Sidebar) Files() []FileEntry {
	return s.files
}

// AddFile appends a completed upload to the list.
func (s *Sidebar) AddFile(entry FileEntry) {
	s.files = append(s.files, entry)
}

// RemoveFile deletes an entry by ID.
func (s *Sidebar) RemoveFile(id string) {
	for i, f := range s.files {
		if f.ID == id {
			s.files = append(s.files[:i], s.files[i+1:]...)
			break
		}
	}
	if s.selected >= len(s.files) && s.selected > 0 {
		s.selected = len(s.files) - 1
	}
}

// UpdateStatus changes the status of an entry (processing -> completed).
func (s *Sidebar) UpdateStatus(id, status string) {
	for i := range s.files {
		if s.files[i].ID == id {
			s.files[i].Status = status
			return
		}
	}
}

// Selected returns the highlighted entry, if any.
func (s *Sidebar) Selected() (FileEntry, bool) {
	if s.selected < 0 || s.selected >= len(s.files) {
		return FileEntry{}, false
	}
	return s.files[s.selected], true
}

// MoveUp moves the selection up.
func (s *Sidebar) MoveUp() {
	if s.selected > 0 {
		s.selected--
	}
}

// MoveDown moves the selection down.
func (s *Sidebar) MoveDown() {
	if s.selected < len(s.files)-1 {
		s.selected++
	}
}

// SetJob sets the active upload job. Pass nil when the job finishes.
func (s *Sidebar) SetJob(job *upload.Job) {
	s.job = job
}

// Job returns the active upload job, nil when idle.
func (s *Sidebar) Job() *upload.Job {
	return s.job
}

// View renders the sidebar panel.
func (s *Sidebar) View() string {
	if !s.visible {
		return ""
	}

	innerWidth := s.width - 4
	if innerWidth < 16 {
		innerWidth = 16
	}

	var lines []string

	lines = append(lines, s.theme.SidebarTitle.Render("Files"))
	lines = append(lines, "")

	if len(s.files) == 0 && s.job == nil {
		emptyStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)
		lines = append(lines, emptyStyle.Render("No files uploaded"))
		lines = append(lines, emptyStyle.Render("yet. Press ^U."))
	}

	for i, f := range s.files {
		lines = append(lines, s.renderEntry(f, i == s.selected && s.focused, innerWidth)...)
	}

	if s.job != nil {
		lines = append(lines, "")
		lines = append(lines, s.renderUploadBar(innerWidth)...)
	}

	content := strings.Join(lines, "\n")

	panel := s.theme.Sidebar.
		Width(s.width - 2).
		Height(s.height)

	return panel.Render(content)
}

// renderEntry renders one file as a name line plus a metadata line.
func (s *Sidebar) renderEntry(f FileEntry, selected bool, width int) []string {
	icon := styles.StatusIndicators.Success
	iconStyle := lipgloss.NewStyle().Foreground(styles.SuccessHighContrast)
	if f.Status == api.StatusError {
		icon = styles.StatusIndicators.Error
		iconStyle = lipgloss.NewStyle().Foreground(styles.ErrorHighContrast)
	} else if f.Status != api.StatusCompleted {
		icon = styles.StatusIndicators.Pending
		iconStyle = lipgloss.NewStyle().Foreground(styles.WarningHighContrast)
	}

	name := f.Name
	nameWidth := width - 5
	if nameWidth < 8 {
		nameWidth = 8
	}
	nameRunes := []rune(name)
	if len(nameRunes) > nameWidth {
		name = string(nameRunes[:nameWidth-3]) + "..."
	}

	itemStyle := s.theme.SidebarItem
	if selected {
		itemStyle = s.theme.SidebarItemSelected
	}

	meta := humanize.Bytes(uint64(f.Size))
	if !f.Uploaded.IsZero() {
		meta += ", " + humanize.Time(f.Uploaded)
	}

	return []string{
		iconStyle.Render(icon) + " " + itemStyle.Render(name),
		"  " + s.theme.SidebarItemMeta.Render(meta),
	}
}

// renderUploadBar renders the in-flight upload with its smoothed progress.
func (s *Sidebar) renderUploadBar(width int) []string {
	barWidth := width - 2
	if barWidth < 10 {
		barWidth = 10
	}

	name := s.job.FileName
	nameRunes := []rune(name)
	if len(nameRunes) > width {
		name = string(nameRunes[:width-3]) + "..."
	}

	lines := []string{
		s.theme.UploadBarLabel.Render(name),
		styles.RenderProgressBar(barWidth, s.job.DisplayedPercent),
	}

	if s.job.Message != "" {
		msg := s.job.Message
		msgRunes := []rune(msg)
		if len(msgRunes) > width {
			msg = string(msgRunes[:width-3]) + "..."
		}
		lines = append(lines, s.theme.UploadBarMessage.Render(msg))
	}

	return lines
}
