// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/auth"
	"github.com/commentsense/sense-tui/internal/config"
	"github.com/commentsense/sense-tui/internal/model"
	"github.com/commentsense/sense-tui/internal/stats"
	"github.com/commentsense/sense-tui/internal/storage"
	"github.com/commentsense/sense-tui/internal/upload"
	"github.com/commentsense/sense-tui/internal/ui/components"
	"github.com/commentsense/sense-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streaming response
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. It composes the session
// guard, the streaming pipeline, the upload poller, and the stats store.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Conversation
	conversation *model.Conversation

	// Backend wiring
	client *api.Client
	guard  *auth.Guard
	stats  *stats.Store
	poller *upload.Poller
	store  *storage.Store // nil when persistence is disabled
	cfg    *config.Config

	// Backend thread identifier, sent as X-Chat-ID on chat requests.
	chatID string

	// Active stream
	stream    *streamState
	cancelMgr *cancelManager

	// Active upload task
	uploadTask *upload.Task

	// UI components
	header    *components.Header
	statusBar *components.StatusBar
	viewport  *components.ChatViewport
	scrollbar *components.ScrollBar
	input     *components.InputArea
	sidebar   *components.Sidebar
	overlay   components.Overlay
	toasts    *components.ToastManager
	thinking  components.ThinkingIndicator

	// Key bindings
	keyMap KeyMap

	// The session failed closed; the root model switches to login.
	sessionLost bool
}

// New creates the chat view over its backend collaborators.
func New(theme *styles.Theme, client *api.Client, guard *auth.Guard, statsStore *stats.Store, poller *upload.Poller, store *storage.Store, cfg *config.Config) Model {
	viewport := components.NewChatViewport(theme)
	if cfg != nil {
		viewport.SetRenderMarkdown(cfg.UI.RenderMarkdown)
	}

	input := components.NewInputArea(theme)

	m := Model{
		state:        StateReady,
		theme:        theme,
		conversation: model.NewConversation(),
		client:       client,
		guard:        guard,
		stats:        statsStore,
		poller:       poller,
		store:        store,
		cfg:          cfg,
		cancelMgr:    newCancelManager(),
		header:       components.NewHeader(theme),
		statusBar:    components.NewStatusBar(theme),
		viewport:     viewport,
		scrollbar:    components.NewScrollBar(theme),
		input:        input,
		sidebar:      components.NewSidebar(theme),
		overlay:      components.NewOverlay(theme),
		toasts:       components.NewToastManager(),
		thinking:     components.NewThinkingIndicator(),
		keyMap:       DefaultKeyMap(),
	}
	m.statusBar.SetSession(components.SessionChecking)
	if cfg != nil {
		m.statusBar.SetEnvironment(cfg.API.Environment)
	}
	return m
}

// Init starts the session check, the background recheck loop, thread
// registration, and the toast ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.input.Focus(),
		auth.CheckCmd(context.Background(), m.guard),
		auth.RecheckCmd(),
		m.registerChatIDCmd(),
		components.ToastTickCmd(),
	)
}

// registerChatIDCmd asks the backend for the active thread identifier.
func (m Model) registerChatIDCmd() tea.Cmd {
	client := m.client
	guard := m.guard
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		token, err := guard.AccessToken(ctx)
		if err != nil {
			return ChatIDMsg{Error: err}
		}
		id, err := client.SetChatID(ctx, token)
		return ChatIDMsg{ChatID: id, Error: err}
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// GetConversation returns the active conversation.
func (m *Model) GetConversation() *model.Conversation {
	return m.conversation
}

// SetConversation replaces the active conversation (session resume).
func (m *Model) SetConversation(conv *model.Conversation) {
	m.conversation = conv
	if conv.ChatID != "" {
		m.chatID = conv.ChatID
	}
	m.statusBar.SetConversation(conv.Title)
	m.updateViewport()
}

// GetState returns the current view state.
func (m *Model) GetState() State {
	return m.state
}

// IsStreaming reports whether a response is being received.
func (m *Model) IsStreaming() bool {
	return m.state == StateStreaming
}

// SessionLost reports whether the session failed closed.
func (m *Model) SessionLost() bool {
	return m.sessionLost
}

// ChatID returns the registered backend thread identifier.
func (m *Model) ChatID() string {
	return m.chatID
}

// =============================================================================
// SHUTDOWN
// =============================================================================

// Shutdown cancels the active stream and upload task and persists the
// conversation. Called by the root model on quit.
func (m *Model) Shutdown() {
	m.cancelMgr.cancel()
	if m.uploadTask != nil {
		m.uploadTask.Stop()
		m.uploadTask = nil
	}
	m.saveConversation()
}

// saveConversation writes the conversation if persistence is enabled and
// there is anything worth keeping.
func (m *Model) saveConversation() {
	if m.store == nil || m.conversation.IsEmpty() {
		return
	}
	m.conversation.ChatID = m.chatID
	// Persist errors at shutdown have nowhere to surface.
	_ = m.store.SaveConversation(m.conversation)
}

// updateViewport pushes the conversation into the viewport.
func (m *Model) updateViewport() {
	m.viewport.SetMessages(m.conversation.Messages)
}
