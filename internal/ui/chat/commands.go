// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the slash-command registry.
package chat

import (
	"context"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/export"
	"github.com/commentsense/sense-tui/internal/model"
	"github.com/commentsense/sense-tui/internal/ui/components"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler handles one slash command with its arguments.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandHandlers maps command names to their handlers.
var commandHandlers = map[string]CommandHandler{
	// Help & meta
	"help": handleHelpCommand,
	"h":    handleHelpCommand,
	"?":    handleHelpCommand,
	"quit": handleQuitCommand,
	"q":    handleQuitCommand,
	"exit": handleQuitCommand,

	// Conversation management
	"clear":  handleClearCommand,
	"c":      handleClearCommand,
	"new":    handleNewCommand,
	"n":      handleNewCommand,
	"save":   handleSaveCommand,
	"s":      handleSaveCommand,
	"export": handleExportCommand,
	"e":      handleExportCommand,

	// Files
	"upload": handleUploadCommand,
	"u":      handleUploadCommand,
	"files":  handleFilesCommand,

	// Account
	"feedback": handleFeedbackCommand,
	"fb":       handleFeedbackCommand,
	"usage":    handleUsageCommand,
	"logout":   handleLogoutCommand,
}

// handleCommand dispatches a slash command through the registry.
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	m.input.Reset()

	parts := strings.Fields(content)
	if len(parts) == 0 {
		return m, nil
	}

	cmdName := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := parts[1:]

	if handler, ok := commandHandlers[cmdName]; ok {
		return handler(&m, args)
	}

	m.conversation.AddSystemMessage("Unknown command '" + content + "'. Type /help for available commands.")
	m.updateViewport()
	return m, nil
}

// =============================================================================
// HELP & META
// =============================================================================

func handleHelpCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	help := strings.Join([]string{
		"Commands:",
		"  /upload <path>              upload an evaluation file (pdf, csv, xls, xlsx)",
		"  /files                      toggle the file panel",
		"  /feedback <up|down> <1-5> [comment]",
		"                              rate the last response",
		"  /export [md|json]           export this conversation",
		"  /save                       save this conversation",
		"  /new                        start a new conversation",
		"  /clear                      clear the current conversation",
		"  /usage                      show your request allowance",
		"  /logout                     sign out",
		"  /quit                       exit",
		"",
		"Keys: ^U upload  ^F files  Esc cancel response  End jump to latest  ^C quit",
	}, "\n")
	m.conversation.AddSystemMessage(help)
	m.updateViewport()
	return *m, nil
}

func handleQuitCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.Shutdown()
	return *m, tea.Quit
}

// =============================================================================
// CONVERSATION MANAGEMENT
// =============================================================================

func handleClearCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.conversation.ClearHistory()
	m.statusBar.SetConversation("")
	m.updateViewport()
	return *m, nil
}

func handleNewCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.saveConversation()
	m.conversation = model.NewConversation()
	m.conversation.ChatID = m.chatID
	m.statusBar.SetConversation("")
	m.updateViewport()
	return *m, nil
}

func handleSaveCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.store == nil {
		m.conversation.AddSystemMessage("Persistence is disabled.")
		m.updateViewport()
		return *m, nil
	}
	if m.conversation.IsEmpty() {
		m.conversation.AddSystemMessage("Nothing to save yet.")
		m.updateViewport()
		return *m, nil
	}
	return *m, m.saveConversationCmd()
}

func handleExportCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.conversation.IsEmpty() {
		m.conversation.AddSystemMessage("Nothing to export yet.")
		m.updateViewport()
		return *m, nil
	}

	format := "md"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}

	conv := m.conversation
	opts := export.DefaultOptions()
	if m.cfg != nil && m.cfg.Storage.DataDir != "" {
		opts.OutputDir = m.cfg.Storage.DataDir + "/exports"
	}

	switch format {
	case "md", "markdown":
		return *m, func() tea.Msg {
			path, err := export.Markdown(conv, opts)
			return ExportCompleteMsg{Path: path, Error: err}
		}
	case "json":
		return *m, func() tea.Msg {
			path, err := export.JSON(conv, opts)
			return ExportCompleteMsg{Path: path, Error: err}
		}
	default:
		m.conversation.AddSystemMessage("Unknown export format '" + format + "'. Use md or json.")
		m.updateViewport()
		return *m, nil
	}
}

// =============================================================================
// FILES
// =============================================================================

func handleUploadCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.conversation.AddSystemMessage("Usage: /upload <path to pdf, csv, xls, or xlsx>")
		m.updateViewport()
		return *m, nil
	}
	path := strings.Join(args, " ")
	m.statusBar.SetStatus(components.StatusUploading)
	return *m, m.startUploadCmd(path)
}

func handleFilesCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.sidebar.Toggle()
	m.sidebar.SetFocused(m.sidebar.IsVisible())
	return m.relayout(nil)
}

// =============================================================================
// ACCOUNT
// =============================================================================

func handleFeedbackCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	target := m.conversation.GetLastAssistantMessage()
	if target == nil {
		m.conversation.AddSystemMessage("No response to rate yet.")
		m.updateViewport()
		return *m, nil
	}
	if target.FeedbackSent {
		m.conversation.AddSystemMessage("Feedback already sent for that response.")
		m.updateViewport()
		return *m, nil
	}

	usage := "Usage: /feedback <up|down> <1-5> [comment]"
	if len(args) < 2 {
		m.conversation.AddSystemMessage(usage)
		m.updateViewport()
		return *m, nil
	}

	fb := api.Feedback{MessageID: target.ID}
	switch strings.ToLower(args[0]) {
	case "up", "positive", "+":
		fb.FeedbackType = api.FeedbackPositive
	case "down", "negative", "-":
		fb.FeedbackType = api.FeedbackNegative
	default:
		m.conversation.AddSystemMessage(usage)
		m.updateViewport()
		return *m, nil
	}

	rating, err := strconv.Atoi(args[1])
	if err != nil {
		m.conversation.AddSystemMessage(usage)
		m.updateViewport()
		return *m, nil
	}
	fb.Rating = rating
	fb.FeedbackText = strings.Join(args[2:], " ")

	if err := fb.Validate(); err != nil {
		m.conversation.AddSystemMessage(err.Error())
		m.updateViewport()
		return *m, nil
	}

	client := m.client
	guard := m.guard
	messageID := target.ID
	return *m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		token, err := guard.AccessToken(ctx)
		if err != nil {
			return FeedbackSentMsg{MessageID: messageID, Error: err}
		}
		err = client.SubmitFeedback(ctx, token, fb)
		return FeedbackSentMsg{MessageID: messageID, Error: err}
	}
}

func handleUsageCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	st := m.stats.Stats()
	m.conversation.AddSystemMessage(
		"Requests used: " + strconv.Itoa(st.Used) + "/" + strconv.Itoa(st.Limit) +
			" (" + strconv.Itoa(st.Remaining()) + " remaining)")
	m.updateViewport()
	return *m, nil
}

func handleLogoutCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.Shutdown()
	m.guard.Logout()
	m.sessionLost = true
	return *m, func() tea.Msg { return LogoutMsg{} }
}
