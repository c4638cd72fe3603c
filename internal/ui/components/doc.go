// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the sense TUI.

This package contains a collection of styled, interactive components built on
top of the Bubble Tea and Lip Gloss libraries.

# Core Components

## Input Components

InputArea (input.go) - Styled text input with character counter.

## Display Components

Header (header.go) - Application header with account and request usage badge.
StatusBar (statusbar.go) - Bottom status bar with session state and shortcuts.
MessageBubble (message.go) - Styled message bubbles for chat messages,
with glamour markdown rendering for settled assistant responses.
ChatViewport (viewport.go) - Scrollable transcript with smooth following.
Sidebar (sidebar.go) - Uploaded evaluation files with upload progress.

## Scrolling

FollowController (follow.go) - Owns the viewport scroll position: eases
toward the bottom while following, detaches on manual scroll up, and
re-engages near the bottom, on the jump affordance, or on send.

## Progress and Feedback

Spinner (spinner.go) - Animated spinner with customizable styles.
Toast (toast.go) - Non-blocking corner notifications with auto-dismiss.
Overlay (overlay.go) - Blocking modal dialogs (rate limit, delete confirm).
HintMatcher (errorhint.go) - Maps raw errors to user-facing messages.

# Theme Integration

All components accept a *styles.Theme for consistent styling:

	theme := styles.NewTheme()
	header := components.NewHeader(theme)
	header.SetWidth(80)
	header.SetAccount("prof@example.edu")
	view := header.View()

# Bubble Tea Integration

Stateful components follow the Bubble Tea update pattern:

	type Component interface {
		Update(tea.Msg) (Component, tea.Cmd)
		View() string
	}

# Helper Functions

The package includes shared helper functions in helpers.go:
  - toStr() - Integer to string conversion without fmt
  - fmtNumber() - Thousand-separated number formatting
  - fmtPercent() - Percentage formatting with one decimal place
*/
package components
