// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the streaming pipeline. The network callback runs in
// the command goroutine and writes into a mutex-protected buffer; a flush
// tick at a capped frame rate drains the buffer into the assistant message.
// Batching keeps rendering at ~30fps regardless of token arrival rate.
package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/auth"
)

// streamFlushInterval caps the render rate during streaming (~30fps).
const streamFlushInterval = 33 * time.Millisecond

// =============================================================================
// STREAM STATE
// =============================================================================

// toolEvent is a tool call or result observed mid-stream.
type toolEvent struct {
	name   string
	input  string
	result string
	ok     bool
	isCall bool
}

// streamState accumulates stream output between flush ticks.
// All fields are mutex-protected: the network callback runs in the command
// goroutine while flushes happen on the Bubble Tea loop.
type streamState struct {
	mu        sync.Mutex
	messageID string
	pending   []byte
	tools     []toolEvent
	total     int
}

func newStreamState(messageID string) *streamState {
	return &streamState{messageID: messageID}
}

// append buffers a text delta for the next flush.
func (s *streamState) append(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, text...)
	s.total += len(text)
}

// addTool records a tool call or result for the next flush.
func (s *streamState) addTool(ev toolEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, ev)
}

// flush returns and clears everything buffered since the last flush.
func (s *streamState) flush() (text string, tools []toolEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text = string(s.pending)
	s.pending = s.pending[:0]
	tools = s.tools
	s.tools = nil
	return text, tools
}

// received reports the total bytes of text delivered so far.
func (s *streamState) received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// =============================================================================
// CANCEL MANAGEMENT
// =============================================================================

// cancelManager guards the active stream's cancel function. It must be held
// by pointer in the Model so Bubble Tea's value copies share one mutex.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

func (cm *cancelManager) set(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.cancelFunc = fn
}

// cancel invokes and clears the stored cancel function. Safe to call when
// nothing is running.
func (cm *cancelManager) cancel() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// startStreamCmd opens the chat stream and feeds the shared stream state.
// The command returns only when the turn ends, with either a completion or
// an error message.
func startStreamCmd(client *api.Client, guard *auth.Guard, chatID string, messages []api.ChatMessage, state *streamState, cancelMgr *cancelManager) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		cancelMgr.set(cancel)
		defer cancel()

		token, err := guard.AccessToken(ctx)
		if err != nil {
			return StreamErrorMsg{MessageID: state.messageID, Error: err}
		}

		err = client.ChatStream(ctx, token, chatID, messages, func(ev api.StreamEvent) {
			switch ev.Kind {
			case api.EventText:
				state.append(ev.Text)
			case api.EventToolCall:
				state.addTool(toolEvent{
					name:   ev.Tool.Name,
					input:  string(ev.Tool.Args),
					isCall: true,
				})
			case api.EventToolResult:
				state.addTool(toolEvent{
					name:   ev.Tool.Name,
					result: string(ev.Tool.Result),
					ok:     true,
				})
			}
		})
		if err != nil {
			msg := StreamErrorMsg{MessageID: state.messageID, Error: err}
			var streamErr *api.StreamError
			if errors.As(err, &streamErr) {
				msg.Partial = streamErr.Partial
			}
			return msg
		}

		return StreamCompleteMsg{MessageID: state.messageID}
	}
}

// streamTickCmd schedules the next flush tick.
func streamTickCmd() tea.Cmd {
	return tea.Tick(streamFlushInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
