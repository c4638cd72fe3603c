// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the sense TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/commentsense/sense-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT - bottom status bar
// =============================================================================

// Status represents the current application status
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusThinking
	StatusUploading
	StatusLoading
	StatusError
	StatusIdle
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusThinking:
		return "Thinking..."
	case StatusUploading:
		return "Uploading..."
	case StatusLoading:
		return "Loading..."
	case StatusError:
		return "Error"
	case StatusIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the status
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusStreaming:
		return "~"
	case StatusThinking, StatusLoading, StatusUploading:
		return styles.StatusIndicators.Pending
	case StatusError:
		return styles.StatusIndicators.Error
	case StatusIdle:
		return "-"
	default:
		return "?"
	}
}

// SessionState is the session indicator shown in the status bar, fed by
// the auth guard.
type SessionState int

const (
	SessionChecking SessionState = iota
	SessionActive
	SessionExpired
)

// String returns the display string for the session state.
func (s SessionState) String() string {
	switch s {
	case SessionChecking:
		return "checking"
	case SessionActive:
		return "signed in"
	case SessionExpired:
		return "signed out"
	default:
		return "unknown"
	}
}

// StatusBar is the bottom status bar: session state, environment,
// activity, scroll position and shortcuts.
type StatusBar struct {
	Status        Status       // Current activity
	Session       SessionState // Auth guard state
	Environment   string       // "local" or "production"
	Conversation  string       // Active conversation title
	ScrollPos     string       // Viewport position, e.g. "[15/100]"
	Width         int          // Available width
	ShowShortcuts bool         // Show keyboard shortcuts
	theme         *styles.Theme
}

// NewStatusBar creates a new StatusBar component
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status:        StatusReady,
		Session:       SessionChecking,
		Environment:   "production",
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus updates the current status
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// SetSession updates the session indicator
func (s *StatusBar) SetSession(state SessionState) {
	s.Session = state
}

// SetEnvironment updates the API environment indicator
func (s *StatusBar) SetEnvironment(env string) {
	s.Environment = env
}

// SetConversation updates the active conversation title
func (s *StatusBar) SetConversation(title string) {
	s.Conversation = title
}

// SetScrollPos updates the viewport position indicator
func (s *StatusBar) SetScrollPos(pos string) {
	s.ScrollPos = pos
}

// View renders the status bar
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	if s.Width < 100 {
		return s.viewMedium()
	}
	return s.viewWide()
}

// viewNarrow renders a compact status bar for narrow terminals
// Format: [S|env] scroll status-icon
func (s *StatusBar) viewNarrow() string {
	parts := []string{}

	sessionStyle := s.getSessionStyle()
	sessionChar := strings.ToUpper(s.Session.String()[:1])
	parts = append(parts, sessionStyle.Render(sessionChar))

	if s.Environment == "local" {
		envStyle := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
		parts = append(parts, envStyle.Render("L"))
	}

	section := "[" + strings.Join(parts, "|") + "]"

	statusStyle := s.getStatusStyle()
	statusText := statusStyle.Render(s.Status.Icon())

	separator := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" ")

	result := section + separator + s.ScrollPos + separator + statusText

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Width(s.Width).
		Render(result)
}

// viewMedium renders a medium-width status bar
// Format: session | env | conversation | status
func (s *StatusBar) viewMedium() string {
	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	parts := []string{}

	sessionStyle := s.getSessionStyle()
	parts = append(parts, sessionStyle.Render(s.Session.String()))

	if s.Environment == "local" {
		envStyle := lipgloss.NewStyle().Foreground(styles.Amber).Bold(true)
		parts = append(parts, envStyle.Render("LOCAL"))
	}

	if s.Conversation != "" {
		name := s.Conversation
		nameRunes := []rune(name)
		if len(nameRunes) > 20 {
			name = string(nameRunes[:17]) + "..."
		}
		nameStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		parts = append(parts, nameStyle.Render(name))
	}

	statusStyle := s.getStatusStyle()
	parts = append(parts, statusStyle.Render(s.Status.String()))

	result := strings.Join(parts, separator)

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// viewWide renders a full-featured status bar for wide terminals
// Format: session | LOCAL | conversation ... scroll ... status shortcuts
func (s *StatusBar) viewWide() string {
	// Left section: session, environment, conversation
	leftParts := []string{}

	sessionStyle := s.getSessionStyle()
	leftParts = append(leftParts, sessionStyle.Render(s.getSessionIcon()+" "+s.Session.String()))

	if s.Environment == "local" {
		envBadge := lipgloss.NewStyle().
			Foreground(styles.Amber).
			Bold(true).
			Render("LOCAL")
		leftParts = append(leftParts, envBadge)
	}

	if s.Conversation != "" {
		nameStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		leftParts = append(leftParts, nameStyle.Render(s.Conversation))
	}

	leftSep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
	leftSection := strings.Join(leftParts, leftSep)

	// Center section: scroll position
	centerSection := ""
	if s.ScrollPos != "" {
		centerSection = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render(s.ScrollPos)
	}

	// Right section: status and shortcuts
	rightParts := []string{}

	statusStyle := s.getStatusStyle()
	rightParts = append(rightParts, statusStyle.Render(s.Status.String()))

	if s.ShowShortcuts {
		rightParts = append(rightParts, s.renderShortcuts())
	}

	rightSection := strings.Join(rightParts, " ")

	leftWidth := lipgloss.Width(leftSection)
	centerWidth := lipgloss.Width(centerSection)
	rightWidth := lipgloss.Width(rightSection)
	totalContent := leftWidth + centerWidth + rightWidth

	spacing := s.Width - totalContent - 4 // Account for padding
	if spacing < 4 {
		spacing = 4
	}

	leftSpace := strings.Repeat(" ", spacing/2)
	rightSpace := strings.Repeat(" ", spacing-spacing/2)

	result := leftSection + leftSpace + centerSection + rightSpace + rightSection

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(styles.Overlay).
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// ==========================================================================
// HELPER RENDER METHODS
// ==========================================================================

// renderShortcuts renders keyboard shortcut hints
func (s *StatusBar) renderShortcuts() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)

	shortcuts := []string{
		keyStyle.Render("^U") + descStyle.Render("upload"),
		keyStyle.Render("^F") + descStyle.Render("files"),
		keyStyle.Render("^C") + descStyle.Render("quit"),
	}

	return strings.Join(shortcuts, " ")
}

// getSessionStyle returns the style for the session state
// ACCESSIBILITY: Uses high contrast colors with bold for colorblind users
func (s *StatusBar) getSessionStyle() lipgloss.Style {
	switch s.Session {
	case SessionActive:
		return lipgloss.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true)
	case SessionExpired:
		return lipgloss.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(styles.WarningHighContrast).Bold(true)
	}
}

// getSessionIcon returns an icon for the session state
func (s *StatusBar) getSessionIcon() string {
	switch s.Session {
	case SessionActive:
		return styles.StatusIndicators.Success
	case SessionExpired:
		return styles.StatusIndicators.Error
	default:
		return styles.StatusIndicators.Pending
	}
}

// getStatusStyle returns the style for the current status
// ACCESSIBILITY: Uses high contrast colors with bold for colorblind users
func (s *StatusBar) getStatusStyle() lipgloss.Style {
	switch s.Status {
	case StatusReady:
		return lipgloss.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true)
	case StatusStreaming, StatusThinking:
		return lipgloss.NewStyle().Foreground(styles.InfoHighContrast).Bold(true)
	case StatusLoading, StatusUploading:
		return lipgloss.NewStyle().Foreground(styles.WarningHighContrast).Bold(true)
	case StatusError:
		return lipgloss.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true)
	case StatusIdle:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	default:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	}
}
