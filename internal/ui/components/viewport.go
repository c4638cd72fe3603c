// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the sense TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/commentsense/sense-tui/internal/model"
	"github.com/commentsense/sense-tui/internal/ui/styles"
)

// =============================================================================
// CHAT VIEWPORT COMPONENT - Scrollable chat area with smooth following
// =============================================================================

// ChatViewport is a scrollable transcript view. Scroll position is owned by
// a FollowController: while following, the viewport eases toward the bottom
// on every FollowTickMsg; a manual scroll up detaches it until the user
// returns near the bottom, presses the jump affordance, or sends a message.
type ChatViewport struct {
	viewport    viewport.Model
	messages    []*model.Message
	width       int
	height      int
	ready       bool
	follow      *FollowController
	theme       *styles.Theme
	messageList *MessageList

	// totalLines is the wrapped content height, tracked so user scrolls can
	// be distinguished from content growth.
	totalLines int
}

// NewChatViewport creates a new ChatViewport
func NewChatViewport(theme *styles.Theme) *ChatViewport {
	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	return &ChatViewport{
		viewport:    vp,
		messages:    []*model.Message{},
		width:       80,
		height:      20,
		follow:      NewFollowController(),
		theme:       theme,
		messageList: NewMessageList(theme),
	}
}

// SetSize updates the viewport dimensions
func (cv *ChatViewport) SetSize(width, height int) {
	cv.width = width
	cv.height = height
	cv.viewport.Width = width - 2 // Account for scroll indicator
	cv.viewport.Height = height
	cv.messageList.SetWidth(width - 4) // Account for padding
	cv.ready = true

	cv.updateContent()
}

// SetRenderMarkdown toggles glamour rendering of assistant messages.
func (cv *ChatViewport) SetRenderMarkdown(enabled bool) {
	cv.messageList.RenderMarkdown = enabled
}

// SetMessages replaces the transcript.
func (cv *ChatViewport) SetMessages(messages []*model.Message) {
	cv.messages = messages
	cv.messageList.SetMessages(messages)
	cv.updateContent()
}

// AppendMessage adds a message to the transcript.
func (cv *ChatViewport) AppendMessage(msg *model.Message) {
	cv.messages = append(cv.messages, msg)
	cv.messageList.SetMessages(cv.messages)
	cv.updateContent()
}

// UpdateLastMessage re-renders after the last message changed (streaming).
func (cv *ChatViewport) UpdateLastMessage() {
	cv.updateContent()
}

// updateContent re-renders the transcript and feeds the new content height
// to the follow controller.
func (cv *ChatViewport) updateContent() {
	content := cv.messageList.View()

	wrappedContent := wrapContentForViewport(content, cv.width-2)
	cv.viewport.SetContent(wrappedContent)

	cv.totalLines = strings.Count(wrappedContent, "\n") + 1
	cv.follow.SetContent(cv.totalLines, cv.height)
}

// Tick advances the smooth-scroll animation one step. It returns true when
// the viewport has settled and no further ticks are needed until the
// content or follow state changes.
func (cv *ChatViewport) Tick() (settled bool) {
	offset, settled := cv.follow.Step()
	cv.viewport.SetYOffset(offset)
	return settled
}

// Following reports whether the viewport is tracking the bottom.
func (cv *ChatViewport) Following() bool {
	return cv.follow.Following()
}

// JumpToBottom re-engages following. Bound to the jump affordance and
// called when the user sends a message.
func (cv *ChatViewport) JumpToBottom() {
	cv.follow.Reengage()
}

// ScrollToTop jumps to the top and detaches from the bottom.
func (cv *ChatViewport) ScrollToTop() {
	cv.viewport.GotoTop()
	cv.follow.OnUserScroll(0, false)
}

// ScrollUp scrolls up by the specified number of lines
func (cv *ChatViewport) ScrollUp(lines int) {
	offset := maxInt0(0, cv.viewport.YOffset-lines)
	cv.viewport.SetYOffset(offset)
	cv.follow.OnUserScroll(offset, false)
}

// ScrollDown scrolls down by the specified number of lines
func (cv *ChatViewport) ScrollDown(lines int) {
	offset := minInt(cv.follow.Target(), cv.viewport.YOffset+lines)
	cv.viewport.SetYOffset(offset)
	cv.follow.OnUserScroll(offset, false)
}

// PageUp scrolls up by one page
func (cv *ChatViewport) PageUp() {
	cv.ScrollUp(cv.height)
}

// PageDown scrolls down by one page
func (cv *ChatViewport) PageDown() {
	cv.ScrollDown(cv.height)
}

// AtTop returns true if the viewport is at the top
func (cv *ChatViewport) AtTop() bool {
	return cv.viewport.AtTop()
}

// AtBottom returns true if the viewport is at the bottom
func (cv *ChatViewport) AtBottom() bool {
	return cv.viewport.AtBottom()
}

// ScrollPercent returns the scroll position as a percentage
func (cv *ChatViewport) ScrollPercent() float64 {
	return cv.viewport.ScrollPercent()
}

// Update handles viewport updates with proper scroll tracking
func (cv *ChatViewport) Update(msg tea.Msg) (*ChatViewport, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case FollowTickMsg:
		if !cv.Tick() {
			return cv, FollowTickCmd()
		}
		return cv, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			cv.ScrollUp(1)
			return cv, nil
		case "down", "j":
			cv.ScrollDown(1)
			return cv, nil
		case "pgup":
			cv.PageUp()
			return cv, nil
		case "pgdn", "pgdown":
			cv.PageDown()
			return cv, nil
		case "home", "g":
			cv.ScrollToTop()
			return cv, nil
		case "end", "G":
			cv.JumpToBottom()
			return cv, FollowTickCmd()
		}

	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			cv.ScrollUp(3)
			return cv, nil
		case tea.MouseWheelDown:
			cv.ScrollDown(3)
			return cv, nil
		}
	}

	// Let the underlying viewport handle any other messages
	cv.viewport, cmd = cv.viewport.Update(msg)

	return cv, cmd
}

// View renders the viewport with scroll indicators
func (cv *ChatViewport) View() string {
	if !cv.ready {
		return ""
	}

	viewportContent := cv.viewport.View()

	topIndicator := cv.renderTopIndicator()
	bottomIndicator := cv.renderBottomIndicator()

	var result strings.Builder

	if topIndicator != "" {
		result.WriteString(topIndicator)
		result.WriteString("\n")
	}

	result.WriteString(viewportContent)

	if bottomIndicator != "" {
		result.WriteString("\n")
		result.WriteString(bottomIndicator)
	}

	return result.String()
}

// ViewWithBorder renders the viewport with a decorative border
func (cv *ChatViewport) ViewWithBorder() string {
	content := cv.View()

	borderStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Width(cv.width)

	return borderStyle.Render(content)
}

// ==========================================================================
// SCROLL INDICATORS
// ==========================================================================

// renderTopIndicator renders the "more above" indicator
func (cv *ChatViewport) renderTopIndicator() string {
	if cv.AtTop() {
		return ""
	}

	indicatorStyle := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Width(cv.width).
		Align(lipgloss.Center)

	arrowStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan)

	textStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	indicator := arrowStyle.Render("^") + " " +
		textStyle.Render("scroll up for more") + " " +
		arrowStyle.Render("^")

	return indicatorStyle.Render(indicator)
}

// renderBottomIndicator renders the jump-to-bottom affordance when the user
// has scrolled away, or a plain "more below" hint otherwise.
func (cv *ChatViewport) renderBottomIndicator() string {
	if cv.AtBottom() {
		return ""
	}

	indicatorStyle := lipgloss.NewStyle().
		Width(cv.width).
		Align(lipgloss.Center)

	if cv.follow.ShowJumpHint() {
		hint := cv.theme.JumpHint.Render(" v jump to latest (end) ")
		return indicatorStyle.Render(hint)
	}

	arrowStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan)

	textStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	posStyle := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Bold(true)

	scrollPos := ""
	if cv.follow.Target() > 0 {
		scrollPos = posStyle.Render(fmt.Sprintf(" [%d/%d] ", cv.viewport.YOffset+1, cv.follow.Target()+1))
	}

	indicator := arrowStyle.Render("v") + scrollPos +
		textStyle.Render("scroll down for more") + " " +
		arrowStyle.Render("v")

	return indicatorStyle.Render(indicator)
}

// =============================================================================
// SCROLL BAR COMPONENT
// =============================================================================

// ScrollBar represents a vertical scroll bar
type ScrollBar struct {
	Height       int
	ScrollPos    float64 // 0.0 to 1.0
	ContentRatio float64 // visible / total
	theme        *styles.Theme
}

// NewScrollBar creates a new ScrollBar
func NewScrollBar(theme *styles.Theme) *ScrollBar {
	return &ScrollBar{
		Height:       20,
		ScrollPos:    0.0,
		ContentRatio: 1.0,
		theme:        theme,
	}
}

// SetHeight sets the scroll bar height
func (sb *ScrollBar) SetHeight(height int) {
	sb.Height = height
}

// SetPosition sets the scroll position (0.0 to 1.0)
func (sb *ScrollBar) SetPosition(pos float64) {
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	sb.ScrollPos = pos
}

// SetContentRatio sets the visible/total content ratio
func (sb *ScrollBar) SetContentRatio(ratio float64) {
	if ratio < 0.1 {
		ratio = 0.1
	}
	if ratio > 1 {
		ratio = 1
	}
	sb.ContentRatio = ratio
}

// View renders the scroll bar
func (sb *ScrollBar) View() string {
	if sb.Height <= 0 || sb.ContentRatio >= 1.0 {
		// No scrolling needed - show faded track
		trackStyle := lipgloss.NewStyle().
			Foreground(styles.Overlay)
		track := make([]string, sb.Height)
		for i := range track {
			track[i] = trackStyle.Render("|")
		}
		return strings.Join(track, "\n")
	}

	thumbSize := int(float64(sb.Height) * sb.ContentRatio)
	if thumbSize < 1 {
		thumbSize = 1
	}
	if thumbSize > sb.Height {
		thumbSize = sb.Height
	}

	scrollableTrack := sb.Height - thumbSize
	thumbPos := int(float64(scrollableTrack) * sb.ScrollPos)
	if thumbPos < 0 {
		thumbPos = 0
	}
	if thumbPos > scrollableTrack {
		thumbPos = scrollableTrack
	}

	var result strings.Builder

	trackStyle := lipgloss.NewStyle().
		Foreground(styles.Overlay)

	thumbStyle := lipgloss.NewStyle().
		Foreground(styles.Purple)

	for i := 0; i < sb.Height; i++ {
		if i >= thumbPos && i < thumbPos+thumbSize {
			result.WriteString(thumbStyle.Render("#"))
		} else {
			result.WriteString(trackStyle.Render("|"))
		}
		if i < sb.Height-1 {
			result.WriteString("\n")
		}
	}

	return result.String()
}

// =============================================================================
// CONTENT WRAPPING WITH RUNEWIDTH SUPPORT
// =============================================================================

// wrapContentForViewport wraps content to fit within the specified width,
// using go-runewidth for proper Unicode and wide character handling.
func wrapContentForViewport(content string, width int) string {
	if width <= 0 {
		return content
	}

	var wrapped strings.Builder
	for _, line := range strings.Split(content, "\n") {
		lineWidth := runewidth.StringWidth(line)
		if lineWidth <= width {
			if wrapped.Len() > 0 {
				wrapped.WriteByte('\n')
			}
			wrapped.WriteString(line)
			continue
		}

		wrappedLine := wordWrapWithRunewidth(line, width)
		if wrapped.Len() > 0 {
			wrapped.WriteByte('\n')
		}
		wrapped.WriteString(wrappedLine)
	}

	return wrapped.String()
}

// wordWrapWithRunewidth wraps a single line to the specified width,
// breaking at word boundaries when possible.
func wordWrapWithRunewidth(line string, width int) string {
	if width <= 0 {
		return line
	}

	runes := []rune(line)
	if len(runes) == 0 {
		return ""
	}

	var result strings.Builder
	var currentLine strings.Builder
	currentWidth := 0
	hasSpace := false

	for _, r := range runes {
		charWidth := runewidth.RuneWidth(r)

		if r == ' ' {
			hasSpace = true
		}

		if currentWidth+charWidth > width {
			if hasSpace && currentLine.Len() > 0 {
				if result.Len() > 0 {
					result.WriteByte('\n')
				}
				result.WriteString(strings.TrimRight(currentLine.String(), " "))
				currentLine.Reset()
				currentLine.WriteRune(r)
				currentWidth = charWidth
				hasSpace = false
			} else {
				// No good break point, force break at current position
				if currentLine.Len() > 0 {
					if result.Len() > 0 {
						result.WriteByte('\n')
					}
					result.WriteString(currentLine.String())
					currentLine.Reset()
				}
				currentLine.WriteRune(r)
				currentWidth = charWidth
				hasSpace = false
			}
		} else {
			currentLine.WriteRune(r)
			currentWidth += charWidth
		}
	}

	if currentLine.Len() > 0 {
		if result.Len() > 0 {
			result.WriteByte('\n')
		}
		result.WriteString(currentLine.String())
	}

	return result.String()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// maxInt0 returns the maximum of two integers (renamed to avoid conflicts)
func maxInt0(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// GetScrollPosition returns the current scroll position as a formatted
// string for the status bar (e.g. "[15/100]").
func (cv *ChatViewport) GetScrollPosition() string {
	if cv.follow.Target() <= 0 {
		return ""
	}
	return fmt.Sprintf("[%d/%d]", cv.viewport.YOffset+1, cv.follow.Target()+1)
}

// GetScrollY returns the current Y scroll offset
func (cv *ChatViewport) GetScrollY() int {
	return cv.viewport.YOffset
}

// GetMaxScrollY returns the maximum Y scroll offset
func (cv *ChatViewport) GetMaxScrollY() int {
	return cv.follow.Target()
}
