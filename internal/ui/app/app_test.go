// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/auth"
	"github.com/commentsense/sense-tui/internal/config"
	"github.com/commentsense/sense-tui/internal/stats"
	"github.com/commentsense/sense-tui/internal/ui/chat"
	"github.com/commentsense/sense-tui/internal/ui/login"
	"github.com/commentsense/sense-tui/internal/ui/styles"
	"github.com/commentsense/sense-tui/internal/upload"
)

func newTestApp(t *testing.T) Model {
	t.Helper()
	client := api.NewClient("http://localhost:0")
	guard := auth.NewGuard(auth.NewMemoryStore(), client)
	statsStore := stats.NewStore(client, guard)
	poller := upload.NewPoller(client, guard)

	m := New(styles.NewTheme(), client, guard, statsStore, poller, nil, config.Default())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func TestStartsOnLoginView(t *testing.T) {
	m := newTestApp(t)
	require.Equal(t, viewLogin, m.view)
	require.Contains(t, m.View(), "Sign in to Comment Sense")
}

func TestLoginDoneOpensChat(t *testing.T) {
	m := newTestApp(t)

	next, cmd := m.Update(login.DoneMsg{Profile: &api.Profile{Email: "a@b.edu"}})
	m = next.(Model)

	require.Equal(t, viewChat, m.view)
	require.NotNil(t, cmd, "chat Init commands must run")
}

func TestPersistedSessionSkipsLogin(t *testing.T) {
	m := newTestApp(t)
	require.NoError(t, m.guard.Adopt(
		&api.TokenPair{AccessToken: "acc", RefreshToken: "ref"},
		&api.Profile{Email: "a@b.edu"},
	))

	next, _ := m.Update(auth.CheckedMsg{State: auth.StateAuthorized})
	m = next.(Model)
	require.Equal(t, viewChat, m.view)
}

func TestUnauthorizedCheckStaysOnLogin(t *testing.T) {
	m := newTestApp(t)
	next, _ := m.Update(auth.CheckedMsg{State: auth.StateUnauthorized})
	m = next.(Model)
	require.Equal(t, viewLogin, m.view)
}

func TestSessionLostDropsToLoginWithNotice(t *testing.T) {
	m := newTestApp(t)
	next, _ := m.Update(login.DoneMsg{Profile: &api.Profile{Email: "a@b.edu"}})
	m = next.(Model)

	next, _ = m.Update(chat.SessionLostMsg{})
	m = next.(Model)

	require.Equal(t, viewLogin, m.view)
	require.Contains(t, m.View(), "Your session expired")
}

func TestLogoutDropsToLoginWithoutNotice(t *testing.T) {
	m := newTestApp(t)
	next, _ := m.Update(login.DoneMsg{Profile: &api.Profile{Email: "a@b.edu"}})
	m = next.(Model)

	next, _ = m.Update(chat.LogoutMsg{})
	m = next.(Model)

	require.Equal(t, viewLogin, m.view)
	require.NotContains(t, m.View(), "session expired")
}

func TestCtrlCQuitsFromLogin(t *testing.T) {
	m := newTestApp(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	require.Equal(t, tea.Quit(), cmd())
}
