// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the top-level Bubble Tea model for sense.
//
// It owns exactly one of two views at a time: the login form or the chat
// screen. Session state drives the switch in both directions: a successful
// sign-in (or a still-valid persisted session) opens the chat, and a session
// that fails closed drops back to a fresh login form.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/auth"
	"github.com/commentsense/sense-tui/internal/config"
	"github.com/commentsense/sense-tui/internal/stats"
	"github.com/commentsense/sense-tui/internal/storage"
	"github.com/commentsense/sense-tui/internal/ui/chat"
	"github.com/commentsense/sense-tui/internal/ui/login"
	"github.com/commentsense/sense-tui/internal/ui/styles"
	"github.com/commentsense/sense-tui/internal/upload"
)

// view identifies which screen currently owns the terminal.
type view int

const (
	viewLogin view = iota
	viewChat
)

// Model is the application root.
type Model struct {
	view   view
	width  int
	height int

	theme  *styles.Theme
	client *api.Client
	guard  *auth.Guard
	stats  *stats.Store
	poller *upload.Poller
	store  *storage.Store
	cfg    *config.Config

	login *login.Model
	chat  chat.Model
}

// New builds the root model. It starts on the login view; Init checks the
// persisted session so a returning user skips the form entirely.
func New(theme *styles.Theme, client *api.Client, guard *auth.Guard, statsStore *stats.Store, poller *upload.Poller, store *storage.Store, cfg *config.Config) Model {
	return Model{
		view:   viewLogin,
		theme:  theme,
		client: client,
		guard:  guard,
		stats:  statsStore,
		poller: poller,
		store:  store,
		cfg:    cfg,
		login:  login.New(client, guard, theme),
	}
}

func (m Model) Init() tea.Cmd {
	// The session check resumes a persisted session without retyping
	// credentials. With no stored tokens it settles on unauthorized and
	// the login form stays up.
	return tea.Batch(
		m.login.Init(),
		auth.CheckCmd(context.Background(), m.guard),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Both views get the size; the hidden one must lay out correctly
		// the moment it becomes active.
		m.login.SetSize(msg.Width, msg.Height)
		if m.view == viewChat {
			return m.delegateChat(msg)
		}
		return m, nil

	case login.DoneMsg:
		return m.openChat()

	case chat.SessionLostMsg:
		return m.closeChat("Your session expired. Please sign in again.")

	case chat.LogoutMsg:
		return m.closeChat("")
	}

	if m.view == viewLogin {
		return m.updateLogin(msg)
	}
	return m.delegateChat(msg)
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if !m.login.Busy() {
				return m, tea.Quit
			}
			return m, nil
		}

	case auth.CheckedMsg:
		// Result of the startup session check. Authorized means the
		// persisted tokens still hold; skip the form.
		if msg.State == auth.StateAuthorized {
			return m.openChat()
		}
		return m, nil

	case auth.RecheckTickMsg:
		// The periodic recheck only matters while the chat is up; its
		// Init re-arms the ticker.
		return m, nil
	}

	var cmd tea.Cmd
	m.login, cmd = m.login.Update(msg)
	return m, cmd
}

func (m Model) delegateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.chat.Update(msg)
	m.chat = next.(chat.Model)
	return m, cmd
}

// openChat swaps in a freshly built chat view.
func (m Model) openChat() (tea.Model, tea.Cmd) {
	m.chat = chat.New(m.theme, m.client, m.guard, m.stats, m.poller, m.store, m.cfg)
	m.view = viewChat

	initCmd := m.chat.Init()
	if m.width > 0 {
		next, _ := m.chat.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		m.chat = next.(chat.Model)
	}
	return m, initCmd
}

// closeChat drops back to a fresh login form. The guard has already logged
// out by the time either trigger message arrives, so stored tokens are gone.
func (m Model) closeChat(notice string) (tea.Model, tea.Cmd) {
	m.chat.Shutdown()
	m.view = viewLogin
	m.login = login.New(m.client, m.guard, m.theme)
	m.login.SetSize(m.width, m.height)
	if notice != "" {
		m.login.SetNotice(notice)
	}
	return m, m.login.Init()
}

func (m Model) View() string {
	if m.view == viewChat {
		return m.chat.View()
	}
	return m.login.View()
}
