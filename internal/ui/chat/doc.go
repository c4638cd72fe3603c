// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The chat view is the composition root of the application: it wires the
// session guard, the streaming pipeline, the upload poller, the request
// allowance store, and conversation persistence into one Bubble Tea model.
//
// Layout, top to bottom: account header, the message viewport (with scroll
// bar and the optional file sidebar), the input area, and the status bar.
// Toasts stack over the bottom-right corner; the rate-limit and confirm
// dialogs replace the screen and swallow input until dismissed.
//
// The view stays gated behind the session guard: a background recheck runs
// every minute, and any refresh or identity failure fails closed, emitting
// SessionLostMsg so the root model returns to the login form.
//
// Streaming: the network callback buffers deltas in streamState; a 33ms
// flush tick drains them into the assistant message and nudges the
// viewport's follow controller, so the transcript eases toward the bottom
// while the user is following and stays put while they read scrollback.
package chat
