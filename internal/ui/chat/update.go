// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/auth"
	"github.com/commentsense/sense-tui/internal/ui/components"
)

// sidebarWidth is the file panel width when visible.
const sidebarWidth = 34

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case auth.CheckedMsg:
		return m.handleSessionChecked(msg)

	case auth.RecheckTickMsg:
		// Background liveness loop: check, then schedule the next tick.
		return m, tea.Batch(
			auth.CheckCmd(context.Background(), m.guard),
			auth.RecheckCmd(),
		)

	case ChatIDMsg:
		return m.handleChatID(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)

	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case components.FollowTickMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case StatsEventMsg:
		return m.handleStatsEvent(msg)

	case UploadStartedMsg:
		return m.handleUploadStarted(msg)

	case UploadSubmittedMsg:
		return m.handleUploadSubmitted(msg)

	case UploadProgressMsg:
		return m.handleUploadProgress(msg)

	case UploadFinishedMsg:
		m.uploadTask = nil
		return m, nil

	case retryUploadMsg:
		m.statusBar.SetStatus(components.StatusUploading)
		return m, m.startUploadCmd(msg.path)

	case FileDeletedMsg:
		return m.handleFileDeleted(msg)

	case FeedbackSentMsg:
		return m.handleFeedbackSent(msg)

	case ConversationSavedMsg:
		if msg.Error != nil {
			m.toasts.AddWarning("Could not save conversation: " + msg.Error.Error())
		}
		return m, nil

	case ExportCompleteMsg:
		if msg.Error != nil {
			m.toasts.AddError("Export failed: " + msg.Error.Error())
		} else {
			m.toasts.AddSuccess("Exported to " + msg.Path)
		}
		return m, nil

	case components.OverlayDismissedMsg:
		return m, nil

	case components.OverlayConfirmedMsg:
		// Confirm modals carry the file ID being deleted.
		return m, m.deleteFileCmd(msg.Tag)

	case components.ToastTickMsg:
		m.toasts.TickToasts()
		if m.toasts.HasToasts() {
			return m, components.ToastTickCmd()
		}
		return m, nil

	case components.ToastDismissMsg:
		m.toasts.RemoveToast(msg.ID)
		return m, nil

	default:
		var cmds []tea.Cmd
		if m.state == StateReady && !m.sidebar.Focused() {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, vpCmd)
		return m, tea.Batch(cmds...)
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.header.SetWidth(msg.Width)
	m.statusBar.SetWidth(msg.Width)
	m.overlay.SetSize(msg.Width, msg.Height)
	m.input.SetWidth(msg.Width - 2)

	chatWidth := msg.Width
	if m.sidebar.IsVisible() {
		chatWidth -= sidebarWidth
	}
	contentHeight := m.contentHeight()
	m.viewport.SetSize(chatWidth, contentHeight)
	m.sidebar.SetSize(sidebarWidth, contentHeight)
	return m, nil
}

// contentHeight is the vertical space left for the viewport and sidebar
// after the header, input area, and status bar.
func (m Model) contentHeight() int {
	h := m.height - headerHeight - inputHeight - statusBarHeight
	if h < 3 {
		h = 3
	}
	return h
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A visible overlay swallows every key.
	if m.overlay.IsVisible() {
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.Shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		if m.state == StateStreaming {
			m.cancelMgr.cancel()
			return m, nil
		}
		if m.sidebar.Focused() {
			m.sidebar.SetFocused(false)
			return m, m.input.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleFiles):
		m.sidebar.Toggle()
		m.sidebar.SetFocused(m.sidebar.IsVisible())
		if m.sidebar.IsVisible() {
			m.input.Blur()
		} else {
			return m.relayout(m.input.Focus())
		}
		return m.relayout(nil)

	case key.Matches(msg, m.keyMap.Upload):
		m.input.SetValue("/upload ")
		m.sidebar.SetFocused(false)
		return m, m.input.Focus()
	}

	if m.sidebar.Focused() {
		return m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.ScrollUp(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.viewport.ScrollDown(1)
		return m, components.FollowTickCmd()

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.PageUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.PageDown()
		return m, components.FollowTickCmd()

	case key.Matches(msg, m.keyMap.Home):
		m.viewport.ScrollToTop()
		return m, nil

	case key.Matches(msg, m.keyMap.End):
		m.viewport.JumpToBottom()
		return m, components.FollowTickCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// relayout recomputes component sizes after the sidebar toggled.
func (m Model) relayout(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	chatWidth := m.width
	if m.sidebar.IsVisible() {
		chatWidth -= sidebarWidth
	}
	m.viewport.SetSize(chatWidth, m.contentHeight())
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Up):
		m.sidebar.MoveUp()
	case key.Matches(msg, m.keyMap.Down):
		m.sidebar.MoveDown()
	case key.Matches(msg, m.keyMap.Delete):
		if entry, ok := m.sidebar.Selected(); ok {
			m.overlay.ShowConfirm(
				"Delete file?",
				entry.Name+" and its analysis will be removed.",
				entry.ID,
			)
		}
	}
	return m, nil
}

// =============================================================================
// SUBMIT
// =============================================================================

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	if strings.HasPrefix(content, "/") {
		return m.handleCommand(content)
	}

	if m.state == StateStreaming {
		return m, nil
	}
	if m.guard.State() != auth.StateAuthorized {
		m.toasts.AddWarning("Signed out. Your message was not sent.")
		return m, nil
	}

	m.input.Reset()

	m.conversation.AddUserMessage(content)
	assistant := m.conversation.AddAssistantMessage()
	m.statusBar.SetConversation(m.conversation.Title)
	m.updateViewport()

	// Sending always reattaches the viewport to the bottom.
	m.viewport.JumpToBottom()

	m.state = StateStreaming
	m.statusBar.SetStatus(components.StatusStreaming)
	m.stream = newStreamState(assistant.ID)
	thinkCmd := m.thinking.Start()

	return m, tea.Batch(
		startStreamCmd(m.client, m.guard, m.chatID, m.conversation.ToAPIMessages(), m.stream, m.cancelMgr),
		streamTickCmd(),
		components.FollowTickCmd(),
		thinkCmd,
	)
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

func (m Model) handleSessionChecked(msg auth.CheckedMsg) (tea.Model, tea.Cmd) {
	switch msg.State {
	case auth.StateAuthorized:
		m.statusBar.SetSession(components.SessionActive)
		if msg.Profile != nil {
			m.header.SetAccount(msg.Profile.Email)
			if m.cfg == nil || m.cfg.UI.ShowUsage {
				m.header.SetUsage(msg.Profile.RequestsUsed, msg.Profile.RequestsLimit)
			}
			m.stats.Set(msg.Profile.RequestsUsed, msg.Profile.RequestsLimit)
		}
		return m, nil

	case auth.StateUnauthorized:
		m.statusBar.SetSession(components.SessionExpired)
		m.sessionLost = true
		m.cancelMgr.cancel()
		return m, func() tea.Msg { return SessionLostMsg{} }

	default:
		m.statusBar.SetSession(components.SessionChecking)
		return m, nil
	}
}

func (m Model) handleChatID(msg ChatIDMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		// Chat requests fall back to the stored thread ID, if any.
		m.toasts.AddWarning("Could not register chat thread: " + msg.Error.Error())
		return m, nil
	}
	m.chatID = msg.ChatID
	m.conversation.ChatID = msg.ChatID
	return m, nil
}

// =============================================================================
// STREAM HANDLERS
// =============================================================================

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if m.state != StateStreaming || m.stream == nil {
		return m, nil
	}

	text, tools := m.stream.flush()
	changed := false

	if text != "" {
		if target := m.conversation.GetMessageByID(m.stream.messageID); target != nil {
			target.AppendStream(text)
			changed = true
		}
		m.thinking.Stop()
	}
	for _, ev := range tools {
		if ev.isCall {
			m.thinking.SetDetail("running " + ev.name)
		} else {
			m.conversation.AddToolMessage(ev.name, ev.input, ev.result, ev.ok)
			changed = true
		}
	}

	if changed {
		m.updateViewport()
		return m, tea.Batch(streamTickCmd(), components.FollowTickCmd())
	}
	return m, streamTickCmd()
}

func (m Model) handleStreamComplete(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	m.finishStream(msg.MessageID)

	// An assistant response landed; count it against the allowance.
	m.stats.Increment()
	st := m.stats.Stats()
	m.header.SetUsage(st.Used, st.Limit)

	return m, tea.Batch(m.saveConversationCmd(), components.FollowTickCmd())
}

func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	m.finishStream(msg.MessageID)

	target := m.conversation.GetMessageByID(msg.MessageID)
	empty := target == nil || (target.Content == "" && msg.Partial == "")

	switch {
	case errors.Is(msg.Error, api.ErrRateLimited):
		// A 429 never counts as a sent request; the blocking dialog
		// replaces the optimistic increment.
		if empty {
			m.conversation.RemoveMessage(msg.MessageID)
		}
		m.stats.SignalRateLimited()
		st := m.stats.Stats()
		m.overlay.ShowRateLimit(st.Used, st.Limit)
		m.updateViewport()
		return m, nil

	case errors.Is(msg.Error, api.ErrUnauthorized):
		if empty {
			m.conversation.RemoveMessage(msg.MessageID)
		}
		m.updateViewport()
		// Let the guard arbitrate; it fails closed on a dead session.
		return m, auth.CheckCmd(context.Background(), m.guard)

	case errors.Is(msg.Error, context.Canceled):
		if empty {
			m.conversation.RemoveMessage(msg.MessageID)
		} else {
			m.conversation.AddSystemMessage("Response canceled.")
		}
		m.updateViewport()
		return m, nil

	default:
		if empty {
			m.conversation.RemoveMessage(msg.MessageID)
		}
		m.toasts.AddError(components.DefaultHintMatcher().Friendly(msg.Error))
		m.updateViewport()
		return m, components.ToastTickCmd()
	}
}

// finishStream returns the view to ready and settles the target message.
func (m *Model) finishStream(messageID string) {
	if m.stream != nil {
		// Drain anything buffered after the last tick.
		text, tools := m.stream.flush()
		if target := m.conversation.GetMessageByID(messageID); target != nil {
			if text != "" {
				target.AppendStream(text)
			}
			target.FinishStreaming()
		}
		for _, ev := range tools {
			if !ev.isCall {
				m.conversation.AddToolMessage(ev.name, ev.input, ev.result, ev.ok)
			}
		}
	}
	m.stream = nil
	m.state = StateReady
	m.statusBar.SetStatus(components.StatusReady)
	m.thinking.Stop()
	m.updateViewport()
}

// saveConversationCmd persists the conversation off the update loop.
func (m Model) saveConversationCmd() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	conv := m.conversation
	conv.ChatID = m.chatID
	return func() tea.Msg {
		return ConversationSavedMsg{Error: store.SaveConversation(conv)}
	}
}

// =============================================================================
// STATS HANDLER
// =============================================================================

func (m Model) handleStatsEvent(msg StatsEventMsg) (tea.Model, tea.Cmd) {
	st := msg.Event.Stats
	if m.cfg == nil || m.cfg.UI.ShowUsage {
		m.header.SetUsage(st.Used, st.Limit)
	}
	if msg.Event.RateLimited && !m.overlay.IsVisible() {
		m.overlay.ShowRateLimit(st.Used, st.Limit)
	}
	return m, nil
}

// =============================================================================
// FILE HANDLERS
// =============================================================================

func (m Model) deleteFileCmd(fileID string) tea.Cmd {
	client := m.client
	guard := m.guard
	name := fileID
	if entry, ok := m.sidebar.Selected(); ok && entry.ID == fileID {
		name = entry.Name
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		token, err := guard.AccessToken(ctx)
		if err != nil {
			return FileDeletedMsg{FileID: fileID, Name: name, Error: err}
		}
		err = client.DeleteFile(ctx, token, fileID)
		return FileDeletedMsg{FileID: fileID, Name: name, Error: err}
	}
}

func (m Model) handleFileDeleted(msg FileDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError("Could not delete " + msg.Name + ": " + msg.Error.Error())
		return m, components.ToastTickCmd()
	}
	m.sidebar.RemoveFile(msg.FileID)
	m.toasts.AddSuccess("Deleted " + msg.Name)
	return m, components.ToastTickCmd()
}

// =============================================================================
// FEEDBACK HANDLER
// =============================================================================

func (m Model) handleFeedbackSent(msg FeedbackSentMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		// Feedback failures are logged only; the chat flow never blocks.
		m.toasts.AddWarning("Feedback was not recorded.")
		return m, components.ToastTickCmd()
	}
	if target := m.conversation.GetMessageByID(msg.MessageID); target != nil {
		target.FeedbackSent = true
		m.updateViewport()
	}
	m.toasts.AddSuccess("Thanks for the feedback!")
	return m, components.ToastTickCmd()
}
