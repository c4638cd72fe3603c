// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the sign-in / sign-up view shown before the chat.
package login

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/auth"
	"github.com/commentsense/sense-tui/internal/ui/styles"
)

// =============================================================================
// MODES AND FIELDS
// =============================================================================

// Mode selects which form the view shows.
type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
)

// field indexes into the form inputs.
const (
	fieldEmail = iota
	fieldPassword
	fieldConfirm // signup only
)

const minPasswordLen = 8

// =============================================================================
// MESSAGES
// =============================================================================

// DoneMsg reports that authentication succeeded and the session was adopted.
type DoneMsg struct {
	Profile *api.Profile
}

// resultMsg carries the outcome of a login or signup attempt.
type resultMsg struct {
	pair    *api.TokenPair
	profile *api.Profile
	err     error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the auth form.
type Model struct {
	mode    Mode
	inputs  []textinput.Model
	focus   int
	busy    bool
	errText string
	notice  string

	client *api.Client
	guard  *auth.Guard
	theme  *styles.Theme

	width  int
	height int
}

// New creates the auth form in login mode with the email field focused.
func New(client *api.Client, guard *auth.Guard, theme *styles.Theme) *Model {
	email := textinput.New()
	email.Placeholder = "you@example.edu"
	email.CharLimit = 254
	email.Width = 38
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'
	password.CharLimit = 128
	password.Width = 38

	confirm := textinput.New()
	confirm.Placeholder = "repeat password"
	confirm.EchoMode = textinput.EchoPassword
	confirm.EchoCharacter = '*'
	confirm.CharLimit = 128
	confirm.Width = 38

	return &Model{
		mode:   ModeLogin,
		inputs: []textinput.Model{email, password, confirm},
		client: client,
		guard:  guard,
		theme:  theme,
	}
}

// Mode returns the current form mode.
func (m *Model) Mode() Mode { return m.mode }

// Busy reports whether a request is in flight.
func (m *Model) Busy() bool { return m.busy }

// ErrorText returns the inline error currently shown, if any.
func (m *Model) ErrorText() string { return m.errText }

// SetNotice shows an informational line above the form, e.g. after a
// session expiry dropped the user back here.
func (m *Model) SetNotice(text string) {
	m.notice = text
}

// SetSize updates the layout dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles key events and request results.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case resultMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = friendlyAuthError(msg.err)
			return m, nil
		}
		if err := m.guard.Adopt(msg.pair, msg.profile); err != nil {
			m.errText = "Could not save session: " + err.Error()
			return m, nil
		}
		profile := msg.profile
		return m, func() tea.Msg { return DoneMsg{Profile: profile} }

	case tea.KeyMsg:
		if m.busy {
			return m, nil // ignore input while a request runs
		}
		switch msg.String() {
		case "tab", "down":
			m.setFocus(m.focus + 1)
			return m, nil
		case "shift+tab", "up":
			m.setFocus(m.focus - 1)
			return m, nil
		case "ctrl+t":
			m.toggleMode()
			return m, nil
		case "enter":
			if m.focus < m.lastField() {
				m.setFocus(m.focus + 1)
				return m, nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// lastField returns the index of the final visible input.
func (m *Model) lastField() int {
	if m.mode == ModeSignup {
		return fieldConfirm
	}
	return fieldPassword
}

func (m *Model) setFocus(idx int) {
	last := m.lastField()
	if idx < 0 {
		idx = last
	}
	if idx > last {
		idx = 0
	}
	m.inputs[m.focus].Blur()
	m.focus = idx
	m.inputs[m.focus].Focus()
}

func (m *Model) toggleMode() {
	if m.mode == ModeLogin {
		m.mode = ModeSignup
	} else {
		m.mode = ModeLogin
		if m.focus == fieldConfirm {
			m.setFocus(fieldPassword)
		}
	}
	m.errText = ""
}

// =============================================================================
// SUBMIT
// =============================================================================

func (m *Model) submit() (*Model, tea.Cmd) {
	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	password := m.inputs[fieldPassword].Value()

	if err := validateEmail(email); err != nil {
		m.errText = err.Error()
		m.setFocus(fieldEmail)
		return m, nil
	}
	if len(password) < minPasswordLen {
		m.errText = "Password must be at least 8 characters"
		m.setFocus(fieldPassword)
		return m, nil
	}
	if m.mode == ModeSignup && m.inputs[fieldConfirm].Value() != password {
		m.errText = "Passwords do not match"
		m.setFocus(fieldConfirm)
		return m, nil
	}

	m.errText = ""
	m.busy = true
	if m.mode == ModeSignup {
		return m, signupCmd(m.client, email, password)
	}
	return m, loginCmd(m.client, email, password)
}

// loginCmd exchanges credentials for a token pair and loads the profile.
func loginCmd(client *api.Client, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		pair, err := client.Login(ctx, email, password)
		if err != nil {
			return resultMsg{err: err}
		}
		profile, err := client.Me(ctx, pair.AccessToken)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{pair: pair, profile: profile}
	}
}

// signupCmd creates the account, then logs in to obtain tokens. The backends
// signup endpoint returns only the profile, so a login round-trip follows.
func signupCmd(client *api.Client, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := client.Signup(ctx, api.SignupRequest{Email: email, Password: password}); err != nil {
			return resultMsg{err: err}
		}
		pair, err := client.Login(ctx, email, password)
		if err != nil {
			return resultMsg{err: err}
		}
		profile, err := client.Me(ctx, pair.AccessToken)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{pair: pair, profile: profile}
	}
}

// =============================================================================
// VALIDATION AND ERROR TEXT
// =============================================================================

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return errors.New("Enter a valid email address")
	}
	return nil
}

// friendlyAuthError maps API failures to inline form messages.
func friendlyAuthError(err error) string {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "Invalid email or password"
	case errors.Is(err, api.ErrEmailTaken):
		return "That email is already registered"
	case errors.Is(err, api.ErrRateLimited):
		return "Too many attempts. Wait a moment and try again"
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 500 {
		return "The server is having trouble. Try again shortly"
	}
	return "Could not reach the server: " + err.Error()
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the centered auth form.
func (m *Model) View() string {
	var b strings.Builder

	title := "Sign in to Comment Sense"
	action := "sign in"
	if m.mode == ModeSignup {
		title = "Create a Comment Sense account"
		action = "create account"
	}
	b.WriteString(m.theme.FormTitle.Render(title))
	b.WriteString("\n\n")

	if m.notice != "" {
		b.WriteString(m.theme.FormHint.Render(m.notice))
		b.WriteString("\n\n")
	}

	b.WriteString(m.label("Email", fieldEmail))
	b.WriteString("\n")
	b.WriteString(m.inputs[fieldEmail].View())
	b.WriteString("\n\n")

	b.WriteString(m.label("Password", fieldPassword))
	b.WriteString("\n")
	b.WriteString(m.inputs[fieldPassword].View())
	b.WriteString("\n")

	if m.mode == ModeSignup {
		b.WriteString("\n")
		b.WriteString(m.label("Confirm password", fieldConfirm))
		b.WriteString("\n")
		b.WriteString(m.inputs[fieldConfirm].View())
		b.WriteString("\n")
	}

	if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.FormError.Render(styles.StatusIndicators.Error + " " + m.errText))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.theme.FormHint.Render("Signing in..."))
	} else {
		b.WriteString(m.theme.FormHint.Render("[enter] " + action + "  [^T] switch mode  [^C] quit"))
	}

	box := m.theme.FormBox.Render(b.String())
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) label(text string, idx int) string {
	if m.focus == idx {
		return m.theme.FormLabelFocused.Render(text)
	}
	return m.theme.FormLabel.Render(text)
}
