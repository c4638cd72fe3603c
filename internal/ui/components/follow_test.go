// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the sense TUI.
package components

import (
	"testing"
)

// =============================================================================
// FOLLOW CONTROLLER TESTS
// =============================================================================

func TestFollowControllerStartsFollowing(t *testing.T) {
	f := NewFollowController()
	if !f.Following() {
		t.Error("NewFollowController() should start following")
	}
	if f.Offset() != 0 {
		t.Errorf("Offset() = %d, want 0", f.Offset())
	}
}

func TestFollowControllerEasesTowardBottom(t *testing.T) {
	f := NewFollowController()
	f.SetContent(1020, 20) // target 1000

	prev := 0
	for i := 0; i < 200; i++ {
		offset, settled := f.Step()
		if offset < prev {
			t.Fatalf("step %d moved backwards: %d -> %d", i, prev, offset)
		}
		if offset > 1000 {
			t.Fatalf("step %d overshot target: %d", i, offset)
		}
		prev = offset
		if settled {
			break
		}
	}
	if f.Offset() != 1000 {
		t.Errorf("Offset() = %d, want 1000 after settling", f.Offset())
	}
}

func TestFollowControllerMinimumStep(t *testing.T) {
	f := NewFollowController()
	f.SetContent(25, 20) // target 5, gap small enough that 10% < 1 line

	offset, _ := f.Step()
	if offset != 1 {
		t.Errorf("first step = %d, want 1 (minimum step)", offset)
	}
}

func TestFollowControllerNeverOvershoots(t *testing.T) {
	f := NewFollowController()
	f.SetContent(21, 20) // target 1, min step would exceed the gap

	offset, settled := f.Step()
	if offset != 1 {
		t.Errorf("step = %d, want 1", offset)
	}
	if !settled {
		t.Error("should settle once the target is reached")
	}
}

func TestFollowControllerSettledAtBottom(t *testing.T) {
	f := NewFollowController()
	f.SetContent(10, 20) // content shorter than viewport, target 0

	offset, settled := f.Step()
	if offset != 0 || !settled {
		t.Errorf("Step() = (%d, %v), want (0, true)", offset, settled)
	}
}

func TestFollowControllerScrollUpDisables(t *testing.T) {
	f := NewFollowController()
	f.SetContent(1020, 20)
	f.Step()
	f.Step()

	f.OnUserScroll(f.Offset()-10, false)
	if f.Following() {
		t.Error("scroll up without content growth should disable following")
	}

	// Position must stay put once detached.
	offset, settled := f.Step()
	if !settled {
		t.Error("detached controller should report settled")
	}
	before := offset
	f.SetContent(2020, 20)
	offset, _ = f.Step()
	if offset != before {
		t.Errorf("detached offset moved from %d to %d on content growth", before, offset)
	}
}

func TestFollowControllerScrollUpDuringGrowthKeepsFollowing(t *testing.T) {
	f := NewFollowController()
	f.SetContent(1020, 20)
	for i := 0; i < 5; i++ {
		f.Step()
	}

	// Content grew and the viewport library reported a lower offset: the
	// user did not touch anything, so keep following.
	f.OnUserScroll(f.Offset()-3, true)
	if !f.Following() {
		t.Error("apparent scroll up caused by content growth should not disable following")
	}
}

func TestFollowControllerReengageNearBottom(t *testing.T) {
	f := NewFollowController()
	f.SetContent(1020, 20) // target 1000

	f.OnUserScroll(100, false)
	if f.Following() {
		t.Fatal("expected following disabled after scroll up")
	}

	// Scrolling down but still far from the bottom stays detached.
	f.OnUserScroll(500, false)
	if f.Following() {
		t.Error("scroll down far from bottom should stay detached")
	}

	// Within 50 lines of the bottom, following resumes.
	f.OnUserScroll(960, false)
	if !f.Following() {
		t.Error("scroll to within 50 lines of bottom should re-enable following")
	}
}

func TestFollowControllerReengageOnSend(t *testing.T) {
	f := NewFollowController()
	f.SetContent(1020, 20)
	f.OnUserScroll(100, false)
	if f.Following() {
		t.Fatal("expected following disabled after scroll up")
	}

	f.Reengage()
	if !f.Following() {
		t.Error("Reengage() should turn following back on")
	}

	// From the detached position the easing resumes toward the bottom.
	offset, _ := f.Step()
	if offset <= 100 {
		t.Errorf("offset = %d, want movement toward bottom after reengage", offset)
	}
}

func TestFollowControllerJumpHint(t *testing.T) {
	f := NewFollowController()
	f.SetContent(1020, 20)
	if f.ShowJumpHint() {
		t.Error("jump hint should be hidden while following")
	}

	f.OnUserScroll(100, false)
	if !f.ShowJumpHint() {
		t.Error("jump hint should show when detached above the bottom")
	}

	f.Reengage()
	if f.ShowJumpHint() {
		t.Error("jump hint should hide after reengaging")
	}
}

func TestFollowControllerContentShrink(t *testing.T) {
	f := NewFollowController()
	f.SetContent(1020, 20)
	for i := 0; i < 50; i++ {
		f.Step()
	}

	f.SetContent(40, 20) // transcript cleared, target 20
	if f.Offset() > 20 {
		t.Errorf("Offset() = %d, want clamp to new target 20", f.Offset())
	}
}
