// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/commentsense/sense-tui/internal/ui/components"
)

// Fixed chrome heights; the viewport and sidebar share the rest.
const (
	headerHeight    = 4
	inputHeight     = 3
	statusBarHeight = 2
)

// View renders the chat view.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Loading..."
	}

	// A visible overlay replaces the whole screen; it dims the surface
	// behind it and swallows input until dismissed.
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}

	m.statusBar.SetScrollPos(m.viewport.GetScrollPosition())

	content := m.renderContent()

	base := lipgloss.JoinVertical(
		lipgloss.Left,
		m.header.View(),
		content,
		m.renderInputRow(),
		m.statusBar.View(),
	)

	if m.toasts.HasToasts() {
		return overlayToasts(base, m.toasts.GetToasts(), m.width)
	}
	return base
}

// renderContent lays out the viewport, scroll bar, and optional sidebar.
func (m Model) renderContent() string {
	contentHeight := m.contentHeight()

	m.scrollbar.SetHeight(contentHeight)
	m.scrollbar.SetPosition(m.viewport.ScrollPercent())

	columns := []string{m.viewport.View(), m.scrollbar.View()}
	if m.sidebar.IsVisible() {
		columns = append(columns, m.sidebar.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

// renderInputRow shows the thinking indicator while waiting for the first
// token, the input area otherwise.
func (m Model) renderInputRow() string {
	if m.thinking.IsActive() {
		return lipgloss.NewStyle().
			Padding(1, 2).
			Render(m.thinking.View())
	}
	return m.input.View()
}

// overlayToasts draws the toast stack over the bottom-right of the base
// view. Each toast line replaces its base line, right-aligned.
func overlayToasts(base string, toasts []components.Toast, width int) string {
	stack := components.RenderToastStack(toasts, width, 0)
	if stack == "" {
		return base
	}

	baseLines := strings.Split(base, "\n")
	stackLines := strings.Split(stack, "\n")

	// Anchor above the input area and status bar.
	bottom := len(baseLines) - inputHeight - statusBarHeight
	start := bottom - len(stackLines)
	if start < 0 {
		start = 0
	}

	for i, line := range stackLines {
		idx := start + i
		if idx >= len(baseLines) {
			break
		}
		baseLines[idx] = lipgloss.PlaceHorizontal(width, lipgloss.Right, line)
	}
	return strings.Join(baseLines, "\n")
}
