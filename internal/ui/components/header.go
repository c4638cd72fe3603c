// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the sense TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/commentsense/sense-tui/internal/ui/styles"
	"github.com/commentsense/sense-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT - title bar with account and usage info
// =============================================================================

// Header is the title bar: brand, signed-in account, and the request
// usage badge fed by the stats store.
type Header struct {
	Title string // Main title (default: "sense")
	Email string // Signed-in account, empty before login
	Used  int    // Requests used this period
	Limit int    // Request limit, 0 when unknown
	Width int    // Available width
	theme *styles.Theme
}

// NewHeader creates a new Header component with default values
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "sense",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetAccount updates the signed-in account shown in the header.
func (h *Header) SetAccount(email string) {
	h.Email = email
}

// SetUsage updates the request usage badge.
func (h *Header) SetUsage(used, limit int) {
	h.Used = used
	h.Limit = limit
}

// View renders the header component
func (h *Header) View() string {
	width := h.Width
	if width < 40 {
		width = 40
	}

	// Inner width accounts for borders and padding
	innerWidth := width - 6

	brandStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Cyan)

	accentStyle := lipgloss.NewStyle().
		Foreground(styles.Purple)

	brand := accentStyle.Render("< ") +
		brandStyle.Render(h.Title) +
		accentStyle.Render(" >")

	subtitleParts := []string{}

	if h.Email != "" {
		emailStyle := lipgloss.NewStyle().
			Foreground(styles.TextSecondary)
		subtitleParts = append(subtitleParts, emailStyle.Render(h.Email))
	}

	if badge := h.usageBadge(); badge != "" {
		subtitleParts = append(subtitleParts, badge)
	}

	subtitle := strings.Join(subtitleParts, " ")

	brandLine := lipgloss.NewStyle().
		Width(innerWidth).
		Align(lipgloss.Center).
		Render(brand)

	subtitleLine := lipgloss.NewStyle().
		Width(innerWidth).
		Align(lipgloss.Center).
		Foreground(styles.TextMuted).
		Render(subtitle)

	content := lipgloss.JoinVertical(lipgloss.Center, brandLine, subtitleLine)

	headerBox := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Purple).
		Background(styles.SurfaceDim).
		Padding(0, 2).
		Width(width)

	return headerBox.Render(content)
}

// ViewCompact renders a compact single-line header for narrow terminals
func (h *Header) ViewCompact() string {
	// Compact format: <sense> | email | [12/50]
	brandStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Cyan)

	accentStyle := lipgloss.NewStyle().
		Foreground(styles.Purple)

	brand := accentStyle.Render("<") +
		brandStyle.Render(h.Title) +
		accentStyle.Render(">")

	parts := []string{brand}

	if h.Email != "" {
		emailStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted)
		parts = append(parts, emailStyle.Render(h.Email))
	}

	if badge := h.usageBadge(); badge != "" {
		parts = append(parts, badge)
	}

	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	return strings.Join(parts, separator)
}

// usageBadge renders "[used/limit]" colored by how close the account is to
// its request limit. Hidden until the first authoritative fetch arrives.
func (h *Header) usageBadge() string {
	if h.Limit <= 0 {
		return ""
	}

	text := "[" + util.IntToString(h.Used) + "/" + util.IntToString(h.Limit) + "]"

	style := h.theme.UsageNormal
	switch {
	case h.Used >= h.Limit:
		style = h.theme.UsageExhausted
	case h.Used*10 >= h.Limit*8: // 80% or more used
		style = h.theme.UsageWarning
	}

	return style.Render(text)
}
