// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the sense TUI.
package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// FOLLOW CONTROLLER
// =============================================================================

const (
	// followGain is the fraction of the remaining gap closed per tick.
	followGain = 0.1

	// followMinStep guarantees forward progress even when the gap is small.
	followMinStep = 1.0

	// reengageDistance is how close to the bottom (in lines) the user has to
	// scroll before following turns back on.
	reengageDistance = 50

	// FollowTickInterval drives the smooth-scroll animation.
	FollowTickInterval = 50 * time.Millisecond
)

// FollowTickMsg advances the follow animation by one step.
type FollowTickMsg struct {
	Time time.Time
}

// FollowTickCmd schedules the next animation step.
func FollowTickCmd() tea.Cmd {
	return tea.Tick(FollowTickInterval, func(t time.Time) tea.Msg {
		return FollowTickMsg{Time: t}
	})
}

// FollowController decides where the chat viewport should be scrolled.
//
// While following, the position eases toward the bottom of the content:
// each tick moves a tenth of the remaining distance, but never less than
// one line, so long transcripts converge quickly and short gaps still
// close. A manual scroll up hands control to the user; scrolling back to
// within reengageDistance of the bottom, pressing the jump affordance, or
// sending a message hands it back.
type FollowController struct {
	// pos is the scroll offset in lines, kept as a float so fractional
	// easing steps accumulate across ticks.
	pos float64

	// target is the offset that puts the last line on screen.
	target int

	following bool
}

// NewFollowController returns a controller that starts out following.
func NewFollowController() *FollowController {
	return &FollowController{following: true}
}

// Following reports whether the viewport is tracking the bottom.
func (f *FollowController) Following() bool {
	return f.following
}

// Offset returns the current scroll offset in whole lines.
func (f *FollowController) Offset() int {
	return int(f.pos)
}

// Target returns the bottom offset the controller is easing toward.
func (f *FollowController) Target() int {
	return f.target
}

// SetContent updates the controller with the current content and viewport
// heights. Growth while following does not snap the position; the easing
// step catches up over subsequent ticks.
func (f *FollowController) SetContent(totalLines, visibleLines int) {
	target := totalLines - visibleLines
	if target < 0 {
		target = 0
	}
	f.target = target
	if f.pos > float64(target) {
		// Content shrank under us (transcript cleared).
		f.pos = float64(target)
	}
}

// Step advances the position one animation tick. It returns the offset to
// apply and whether the controller has settled at the target, in which
// case the caller can stop ticking until content changes again.
func (f *FollowController) Step() (offset int, settled bool) {
	if !f.following {
		return int(f.pos), true
	}
	gap := float64(f.target) - f.pos
	if gap <= 0 {
		f.pos = float64(f.target)
		return f.target, true
	}
	step := gap * followGain
	if step < followMinStep {
		step = followMinStep
	}
	if step > gap {
		step = gap
	}
	f.pos += step
	return int(f.pos), f.pos >= float64(f.target)
}

// OnUserScroll records a scroll position chosen by the user. Scrolling up
// while the content did not grow disables following; scrolling down to
// within reengageDistance of the bottom re-enables it. An upward move that
// merely reflects content growing underneath the viewport is not treated
// as the user taking control.
func (f *FollowController) OnUserScroll(offset int, contentGrew bool) {
	prev := f.pos
	f.pos = float64(offset)
	switch {
	case float64(offset) < prev && !contentGrew:
		f.following = false // User took control
	case float64(offset) > prev && float64(f.target)-f.pos <= reengageDistance:
		f.following = true
	}
}

// Reengage turns following back on. Called when the user activates the
// jump-to-bottom affordance or sends a message.
func (f *FollowController) Reengage() {
	f.following = true
}

// ShowJumpHint reports whether the jump-to-bottom affordance should be
// visible: the user is detached and not already at the bottom.
func (f *FollowController) ShowJumpHint() bool {
	return !f.following && f.pos < float64(f.target)
}
