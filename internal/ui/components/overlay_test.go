// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/commentsense/sense-tui/internal/ui/styles"
)

func TestOverlayHiddenByDefault(t *testing.T) {
	o := NewOverlay(styles.NewTheme())
	if o.IsVisible() {
		t.Error("new overlay should be hidden")
	}
	if o.View() != "" {
		t.Error("hidden overlay should render empty string")
	}
}

func TestOverlayRateLimit(t *testing.T) {
	o := NewOverlay(styles.NewTheme())
	o.SetSize(100, 40)
	o.ShowRateLimit(50, 50)

	if !o.IsVisible() {
		t.Fatal("overlay should be visible after ShowRateLimit")
	}
	if o.Kind() != OverlayRateLimit {
		t.Errorf("Kind() = %d, want OverlayRateLimit", o.Kind())
	}

	view := o.View()
	if !strings.Contains(view, "Request Limit Reached") {
		t.Error("rate limit overlay should show the title")
	}
	if !strings.Contains(view, "50/50") {
		t.Error("rate limit overlay should show usage")
	}
}

func TestOverlayRateLimitDismiss(t *testing.T) {
	o := NewOverlay(styles.NewTheme())
	o.ShowRateLimit(50, 50)

	// Typing does not dismiss the dialog.
	o, cmd := o.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if cmd != nil || !o.IsVisible() {
		t.Error("plain keys should not dismiss the rate limit dialog")
	}

	o, cmd = o.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if o.IsVisible() {
		t.Error("enter should dismiss the rate limit dialog")
	}
	if cmd == nil {
		t.Fatal("dismiss should emit a command")
	}
	msg, ok := cmd().(OverlayDismissedMsg)
	if !ok {
		t.Fatalf("expected OverlayDismissedMsg, got %T", cmd())
	}
	if msg.Kind != OverlayRateLimit {
		t.Errorf("dismissed kind = %d, want OverlayRateLimit", msg.Kind)
	}
}

func TestOverlayConfirm(t *testing.T) {
	o := NewOverlay(styles.NewTheme())
	o.ShowConfirm("Delete File", "Delete evaluations.csv?", "file-123")

	o, cmd := o.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	if o.IsVisible() {
		t.Error("confirm should hide the overlay")
	}
	if cmd == nil {
		t.Fatal("confirm should emit a command")
	}
	msg, ok := cmd().(OverlayConfirmedMsg)
	if !ok {
		t.Fatalf("expected OverlayConfirmedMsg, got %T", cmd())
	}
	if msg.Tag != "file-123" {
		t.Errorf("Tag = %q, want file-123", msg.Tag)
	}
}

func TestOverlayConfirmCancel(t *testing.T) {
	o := NewOverlay(styles.NewTheme())
	o.ShowConfirm("Delete File", "Delete evaluations.csv?", "file-123")

	o, cmd := o.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if o.IsVisible() {
		t.Error("esc should cancel the confirm dialog")
	}
	if cmd == nil {
		t.Fatal("cancel should emit a command")
	}
	if _, ok := cmd().(OverlayDismissedMsg); !ok {
		t.Fatalf("expected OverlayDismissedMsg, got %T", cmd())
	}
}
