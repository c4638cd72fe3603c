// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the sense TUI.
package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/commentsense/sense-tui/internal/model"
	"github.com/commentsense/sense-tui/internal/ui/styles"
	"github.com/commentsense/sense-tui/internal/util"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders a single chat message as a styled bubble.
type MessageBubble struct {
	Message       *model.Message
	Width         int
	IsLatest      bool
	ShowTimestamp bool
	Streaming     bool
	theme         *styles.Theme
	markdown      *glamour.TermRenderer
}

// NewMessageBubble creates a new MessageBubble
func NewMessageBubble(msg *model.Message, theme *styles.Theme) *MessageBubble {
	if msg == nil {
		return &MessageBubble{
			Message: &model.Message{Role: model.RoleSystem, Content: ""},
			Width:   80,
			theme:   theme,
		}
	}
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		Streaming:     msg.IsStreaming,
		theme:         theme,
	}
}

// SetWidth sets the bubble width
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// SetIsLatest marks this as the latest message
func (b *MessageBubble) SetIsLatest(latest bool) {
	b.IsLatest = latest
}

// SetMarkdownRenderer supplies a shared glamour renderer for assistant
// messages. Nil disables markdown and falls back to plain wrapping.
func (b *MessageBubble) SetMarkdownRenderer(r *glamour.TermRenderer) {
	b.markdown = r
}

// View renders the message bubble
func (b *MessageBubble) View() string {
	switch b.Message.Role {
	case model.RoleUser:
		return b.renderUserBubble()
	case model.RoleAssistant:
		return b.renderAssistantBubble()
	case model.RoleSystem:
		return b.renderSystemBubble()
	case model.RoleTool:
		return b.renderToolBubble()
	default:
		return b.renderGenericBubble()
	}
}

// ==========================================================================
// USER BUBBLE - Blue tones, right-aligned feel
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	content := b.Message.StreamingContent()
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 12 // Account for margins and padding
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	contentWidth := minInt(maxLineWidth(wrappedContent)+4, b.Width-8)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.UserBubbleFg).
		Background(styles.UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.UserBubbleBorder).
		Padding(0, 2).
		Width(contentWidth)

	bubble := bubbleStyle.Render(wrappedContent)

	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	roleIndicator := roleStyle.Render("you")

	timestamp := ""
	if b.ShowTimestamp {
		timestamp = b.renderTimestamp()
	}

	headerParts := []string{roleIndicator}
	if timestamp != "" {
		headerParts = append(headerParts, timestamp)
	}
	header := strings.Join(headerParts, " ")

	// Right-align the bubble with left margin
	leftMargin := b.Width - contentWidth - 4
	if leftMargin < 0 {
		leftMargin = 0
	}

	marginStyle := lipgloss.NewStyle().MarginLeft(leftMargin)

	headerLine := marginStyle.Render(header)
	bubbleLine := marginStyle.Render(bubble)

	return lipgloss.JoinVertical(lipgloss.Right, headerLine, bubbleLine)
}

// ==========================================================================
// ASSISTANT BUBBLE - Purple/violet tones, left-aligned
// ==========================================================================

func (b *MessageBubble) renderAssistantBubble() string {
	content := b.Message.StreamingContent()

	if b.Streaming {
		content = content + b.renderStreamingCursor()
	}

	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}

	// PERFORMANCE: markdown rendering only for settled messages; streaming
	// deltas re-render every tick and plain wrapping is much cheaper.
	var wrappedContent string
	if b.markdown != nil && !b.Streaming {
		if rendered, err := b.markdown.Render(b.Message.StreamingContent()); err == nil {
			wrappedContent = strings.Trim(rendered, "\n")
		}
	}
	if wrappedContent == "" {
		wrappedContent = wordWrap(content, maxContentWidth)
	}

	contentWidth := minInt(maxLineWidth(wrappedContent)+4, b.Width-8)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.AssistantBubbleFg).
		Background(styles.AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.AssistantBubbleBorder).
		Padding(0, 2).
		Width(contentWidth).
		MarginRight(4)

	bubble := bubbleStyle.Render(wrappedContent)

	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	roleIndicator := roleStyle.Render("assistant")

	timestamp := ""
	if b.ShowTimestamp {
		timestamp = b.renderTimestamp()
	}

	headerParts := []string{roleIndicator}
	if timestamp != "" {
		headerParts = append(headerParts, timestamp)
	}
	if b.Message.FeedbackSent {
		fbStyle := lipgloss.NewStyle().Foreground(styles.SuccessHighContrast)
		headerParts = append(headerParts, fbStyle.Render("[feedback sent]"))
	}
	header := strings.Join(headerParts, " ")

	return lipgloss.JoinVertical(lipgloss.Left, header, bubble)
}

// ==========================================================================
// SYSTEM BUBBLE - Amber/yellow tones, centered
// ==========================================================================

func (b *MessageBubble) renderSystemBubble() string {
	content := b.Message.StreamingContent()
	if content == "" {
		content = "System message"
	}

	maxContentWidth := b.Width - 20
	if maxContentWidth < 30 {
		maxContentWidth = 30
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	contentWidth := minInt(maxLineWidth(wrappedContent)+4, b.Width-16)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.SystemBubbleFg).
		Background(styles.SystemBubbleBg).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(styles.SystemBubbleBorder).
		Padding(0, 2).
		Width(contentWidth).
		Align(lipgloss.Center)

	bubble := bubbleStyle.Render(wrappedContent)

	centerStyle := lipgloss.NewStyle().
		Width(b.Width).
		Align(lipgloss.Center)

	labelStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	icon := labelStyle.Render("system")

	timestamp := ""
	if b.ShowTimestamp {
		timestamp = b.renderTimestamp()
	}

	header := icon
	if timestamp != "" {
		header = icon + " " + timestamp
	}

	return lipgloss.JoinVertical(
		lipgloss.Center,
		centerStyle.Render(header),
		centerStyle.Render(bubble),
	)
}

// ==========================================================================
// TOOL BUBBLE - Emerald for success, Rose for error
// ==========================================================================

func (b *MessageBubble) renderToolBubble() string {
	content := b.Message.ToolResult
	if content == "" {
		content = b.Message.StreamingContent()
	}

	// Truncate very long tool output
	maxLines := 20
	lines := strings.Split(content, "\n")
	truncated := false
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}
	if truncated {
		lines = append(lines, "... (output truncated)")
	}
	// Tree connectors tie multi-line output back to the tool header.
	if len(lines) > 1 {
		for i := range lines {
			lines[i] = styles.RenderTreeLine(i == len(lines)-1) + lines[i]
		}
	}
	content = strings.Join(lines, "\n")

	maxContentWidth := b.Width - 10
	if maxContentWidth < 30 {
		maxContentWidth = 30
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	// ACCESSIBILITY: Choose style based on success/error with high contrast colors
	var bubbleStyle lipgloss.Style
	var iconStyle lipgloss.Style
	var icon string

	if b.Message.IsSuccess {
		bubbleStyle = lipgloss.NewStyle().
			Foreground(styles.ToolSuccessFg).
			Background(styles.ToolSuccessBg).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(styles.SuccessHighContrast).
			BorderLeft(true).
			PaddingLeft(2)

		iconStyle = lipgloss.NewStyle().
			Foreground(styles.SuccessHighContrast).
			Bold(true)
		icon = styles.StatusIndicators.Success
	} else {
		bubbleStyle = lipgloss.NewStyle().
			Foreground(styles.ToolErrorFg).
			Background(styles.ToolErrorBg).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(styles.ErrorHighContrast).
			BorderLeft(true).
			PaddingLeft(2)

		iconStyle = lipgloss.NewStyle().
			Foreground(styles.ErrorHighContrast).
			Bold(true)
		icon = styles.StatusIndicators.Error
	}

	bubble := bubbleStyle.Render(wrappedContent)

	toolNameStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Bold(true)

	toolName := b.Message.ToolName
	if toolName == "" {
		toolName = "Tool"
	}

	header := iconStyle.Render(icon) + " " + toolNameStyle.Render(toolName)

	if b.ShowTimestamp {
		header += " " + b.renderTimestamp()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, bubble)
}

// ==========================================================================
// GENERIC BUBBLE - Fallback for unknown roles
// ==========================================================================

func (b *MessageBubble) renderGenericBubble() string {
	content := b.Message.StreamingContent()
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 10
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	if maxContentWidth > b.Width-2 {
		maxContentWidth = b.Width - 2
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 2)

	return bubbleStyle.Render(wrappedContent)
}

// ==========================================================================
// HELPER METHODS
// ==========================================================================

// renderTimestamp renders a dimmed timestamp
func (b *MessageBubble) renderTimestamp() string {
	timestampStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	ts := b.Message.Timestamp
	if ts.IsZero() {
		return ""
	}

	// Format: "12:34 PM" or "Jan 5, 12:34 PM"
	now := time.Now()
	var formatted string

	if ts.Year() == now.Year() && ts.YearDay() == now.YearDay() {
		formatted = formatTime(ts)
	} else {
		formatted = formatDate(ts) + ", " + formatTime(ts)
	}

	return timestampStyle.Render(formatted)
}

// renderStreamingCursor renders the streaming cursor animation
func (b *MessageBubble) renderStreamingCursor() string {
	cursorStyle := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Blink(true)

	return cursorStyle.Render("_")
}

// ==========================================================================
// UTILITY FUNCTIONS
// ==========================================================================

// wordWrap wraps text to fit within the specified width
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for lineIdx, line := range lines {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLine := words[0]

		for _, word := range words[1:] {
			if runeLen(currentLine)+1+runeLen(word) <= width {
				currentLine += " " + word
			} else {
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}

		result.WriteString(currentLine)
	}

	return result.String()
}

// maxLineWidth returns the width of the longest line in runes (characters).
// This correctly handles Unicode text where len() would return byte count.
func maxLineWidth(text string) int {
	maxWidth := 0
	for _, line := range strings.Split(text, "\n") {
		lineWidth := runeLen(line)
		if lineWidth > maxWidth {
			maxWidth = lineWidth
		}
	}
	return maxWidth
}

// minInt returns the minimum of two integers
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// runeLen returns the number of runes (characters) in a string.
// This correctly handles Unicode text where len() would return byte count.
func runeLen(s string) int {
	return len([]rune(s))
}

// formatTime formats a time as "3:04 PM"
func formatTime(t time.Time) string {
	hour := t.Hour()
	minute := t.Minute()
	ampm := "AM"

	if hour >= 12 {
		ampm = "PM"
		if hour > 12 {
			hour -= 12
		}
	}
	if hour == 0 {
		hour = 12
	}

	minuteStr := util.IntToString(minute)
	if minute < 10 {
		minuteStr = "0" + minuteStr
	}

	return util.IntToString(hour) + ":" + minuteStr + " " + ampm
}

// formatDate formats a date as "Jan 5"
func formatDate(t time.Time) string {
	months := []string{
		"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
	}

	month := months[t.Month()-1]
	day := t.Day()

	return month + " " + util.IntToString(day)
}

// =============================================================================
// MESSAGE LIST COMPONENT - For rendering multiple messages
// =============================================================================

// MessageList renders a transcript of message bubbles.
type MessageList struct {
	Messages       []*model.Message
	Width          int
	ShowTimestamps bool
	RenderMarkdown bool
	theme          *styles.Theme
	markdown       *glamour.TermRenderer
	markdownWidth  int
}

// NewMessageList creates a new MessageList
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Messages:       []*model.Message{},
		Width:          80,
		ShowTimestamps: true,
		RenderMarkdown: true,
		theme:          theme,
	}
}

// SetMessages sets the messages to display
func (ml *MessageList) SetMessages(messages []*model.Message) {
	ml.Messages = messages
}

// SetWidth sets the list width
func (ml *MessageList) SetWidth(width int) {
	ml.Width = width
}

// markdownRenderer returns a glamour renderer sized to the current width,
// rebuilding it only when the width changes.
func (ml *MessageList) markdownRenderer() *glamour.TermRenderer {
	if !ml.RenderMarkdown {
		return nil
	}
	wrap := ml.Width - 12
	if wrap < 20 {
		wrap = 20
	}
	if ml.markdown != nil && ml.markdownWidth == wrap {
		return ml.markdown
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	ml.markdown = r
	ml.markdownWidth = wrap
	return r
}

// View renders all messages
func (ml *MessageList) View() string {
	if len(ml.Messages) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Width(ml.Width).
			Align(lipgloss.Center).
			Padding(2, 0)

		return emptyStyle.Render("No messages yet. Ask about your course evaluations!")
	}

	renderer := ml.markdownRenderer()

	var bubbles []string

	for i, msg := range ml.Messages {
		bubble := NewMessageBubble(msg, ml.theme)
		bubble.SetWidth(ml.Width)
		bubble.ShowTimestamp = ml.ShowTimestamps
		bubble.SetMarkdownRenderer(renderer)
		bubble.SetIsLatest(i == len(ml.Messages)-1)

		bubbles = append(bubbles, bubble.View())
	}

	separator := "\n"

	return strings.Join(bubbles, separator)
}
