// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the sense TUI.
package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/commentsense/sense-tui/internal/ui/styles"
	"github.com/commentsense/sense-tui/internal/util"
)

// =============================================================================
// MODAL OVERLAY - blocking dialogs
// =============================================================================

// OverlayKind identifies what a modal overlay is blocking on.
type OverlayKind int

const (
	// OverlayNone means no overlay is active.
	OverlayNone OverlayKind = iota
	// OverlayRateLimit blocks input after the server rejected a request
	// with 429. Unlike toasts this demands acknowledgement: the user has
	// run out of requests and nothing they type will go through.
	OverlayRateLimit
	// OverlayConfirm asks the user to confirm a destructive action
	// (deleting an uploaded file).
	OverlayConfirm
)

// OverlayDismissedMsg signals the user acknowledged a blocking overlay.
type OverlayDismissedMsg struct {
	Kind OverlayKind
}

// OverlayConfirmedMsg signals the user confirmed an OverlayConfirm dialog.
type OverlayConfirmedMsg struct {
	// Tag round-trips whatever the caller stored when showing the dialog,
	// typically the ID of the thing being deleted.
	Tag string
}

// Overlay is a centered modal dialog that blocks all other input while
// visible. The chat model routes key events here first when IsVisible.
type Overlay struct {
	visible bool
	kind    OverlayKind
	title   string
	message string
	hint    string
	tag     string

	theme  *styles.Theme
	width  int
	height int
}

// NewOverlay creates a hidden overlay.
func NewOverlay(theme *styles.Theme) Overlay {
	return Overlay{theme: theme}
}

// SetSize sets the overlay dimensions.
func (o *Overlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// ShowRateLimit displays the request-limit dialog.
func (o *Overlay) ShowRateLimit(used, limit int) {
	o.visible = true
	o.kind = OverlayRateLimit
	o.title = styles.StatusIndicators.Warning + " Request Limit Reached"
	o.message = "You have used all your available requests (" +
		formatUsage(used, limit) + "). The counter resets on your next billing period."
	o.hint = "Press enter or esc to dismiss"
	o.tag = ""
}

// ShowConfirm displays a confirmation dialog for a destructive action.
func (o *Overlay) ShowConfirm(title, message, tag string) {
	o.visible = true
	o.kind = OverlayConfirm
	o.title = styles.StatusIndicators.Warning + " " + title
	o.message = message
	o.hint = "[y] confirm  [n/esc] cancel"
	o.tag = tag
}

// Hide hides the overlay.
func (o *Overlay) Hide() {
	o.visible = false
	o.kind = OverlayNone
}

// IsVisible returns whether the overlay is currently visible.
func (o *Overlay) IsVisible() bool {
	return o.visible
}

// Kind returns the kind of the visible overlay.
func (o *Overlay) Kind() OverlayKind {
	return o.kind
}

// Update handles key events while the overlay is visible. All other input
// is swallowed so the dialog actually blocks.
func (o Overlay) Update(msg tea.Msg) (Overlay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height

	case tea.KeyMsg:
		if !o.visible {
			return o, nil
		}
		switch o.kind {
		case OverlayRateLimit:
			switch msg.String() {
			case "enter", "esc", " ":
				kind := o.kind
				o.Hide()
				return o, func() tea.Msg {
					return OverlayDismissedMsg{Kind: kind}
				}
			}
		case OverlayConfirm:
			switch msg.String() {
			case "y", "Y", "enter":
				tag := o.tag
				o.Hide()
				return o, func() tea.Msg {
					return OverlayConfirmedMsg{Tag: tag}
				}
			case "n", "N", "esc":
				kind := o.kind
				o.Hide()
				return o, func() tea.Msg {
					return OverlayDismissedMsg{Kind: kind}
				}
			}
		}
	}

	return o, nil
}

// View renders the overlay centered over a dimmed backdrop.
func (o Overlay) View() string {
	if !o.visible {
		return ""
	}

	width := o.width
	if width == 0 {
		width = 60
	}
	height := o.height
	if height == 0 {
		height = 24
	}

	maxWidth := width - 8
	if maxWidth < 40 {
		maxWidth = 40
	}
	if maxWidth > 60 {
		maxWidth = 60
	}

	var parts []string

	parts = append(parts, o.theme.OverlayTitle.Render(o.title))
	parts = append(parts, "")

	msgStyle := o.theme.OverlayMessage.
		Width(maxWidth - 4).
		Align(lipgloss.Center)
	parts = append(parts, msgStyle.Render(o.message))

	parts = append(parts, "")
	parts = append(parts, o.theme.OverlayHint.Render(o.hint))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	box := o.theme.OverlayBox.
		Width(maxWidth).
		Align(lipgloss.Center).
		Render(content)

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

// formatUsage renders "used/limit" for the rate-limit dialog.
func formatUsage(used, limit int) string {
	return util.IntToString(used) + "/" + util.IntToString(limit)
}
