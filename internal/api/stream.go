// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// STREAMING: Robust data-stream parsing with error handling

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

// MaxChunkSize is the maximum allowed size for a single stream line (64KB)
const MaxChunkSize = 64 * 1024

// Data-stream line prefixes. The chat endpoint speaks the AI data-stream
// protocol: each line is `<code>:<json>\n`.
const (
	prefixText       = "0" // JSON string, text delta
	prefixError      = "3" // JSON string, server-side error
	prefixToolCall   = "9" // JSON object, tool invocation
	prefixToolResult = "a" // JSON object, tool result
	prefixFinishMsg  = "d" // JSON object, message finished
	prefixFinishStep = "e" // JSON object, step finished
)

// =============================================================================
// STREAMING TYPES
// =============================================================================

// EventKind discriminates the parsed stream events.
type EventKind int

const (
	// EventText carries a text delta to append to the assistant message.
	EventText EventKind = iota
	// EventToolCall announces a tool invocation by the assistant.
	EventToolCall
	// EventToolResult carries the result of an earlier tool invocation.
	EventToolResult
	// EventFinish marks the end of the assistant turn.
	EventFinish
)

// ToolCall is an assistant-invoked tool with its arguments.
type ToolCall struct {
	ID       string          `json:"toolCallId"`
	Name     string          `json:"toolName"`
	Args     json.RawMessage `json:"args"`
	Result   json.RawMessage `json:"result,omitempty"`
	Complete bool            `json:"-"`
}

// StreamEvent is one parsed event from the chat stream.
type StreamEvent struct {
	Kind EventKind
	Text string   // EventText
	Tool ToolCall // EventToolCall / EventToolResult
}

// StreamCallback is invoked for each parsed event, in stream order.
type StreamCallback func(ev StreamEvent)

// ContentPart is one part of a structured message body.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ChatMessage is one turn in the conversation payload. User and assistant
// content is a list of typed parts; the backend flattens them.
type ChatMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// TextMessage builds a single-part text message for the given role.
func TextMessage(role, text string) ChatMessage {
	return ChatMessage{
		Role:    role,
		Content: []ContentPart{{Type: "text", Text: text}},
	}
}

// chatRequest is the body for the streaming chat endpoint.
type chatRequest struct {
	System   string        `json:"system,omitempty"`
	Messages []ChatMessage `json:"messages"`
	Tools    []any         `json:"tools"`
}

// StreamError preserves partial content received before a mid-stream failure
// so the UI can keep what already rendered.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// DATA-STREAM READER
// =============================================================================

// DataStreamReader parses prefixed data-stream lines from a response body.
type DataStreamReader struct {
	reader *bufio.Reader
}

// NewDataStreamReader creates a reader over an io.Reader.
func NewDataStreamReader(r io.Reader) *DataStreamReader {
	return &DataStreamReader{
		reader: bufio.NewReader(r),
	}
}

// ReadLine reads the next protocol line and splits it into its prefix code
// and JSON payload. Returns io.EOF when the stream ends.
func (d *DataStreamReader) ReadLine() (string, []byte, error) {
	for {
		line, err := d.reader.ReadBytes('\n')
		if err != nil && !(err == io.EOF && len(line) > 0) {
			return "", nil, err
		}
		if len(line) > MaxChunkSize {
			return "", nil, fmt.Errorf("stream line too large: %d bytes", len(line))
		}

		raw := bytes.TrimRight(line, "\r\n")
		if len(raw) == 0 {
			// Blank keep-alive line
			continue
		}

		code, payload, found := bytes.Cut(raw, []byte(":"))
		if !found {
			return "", nil, fmt.Errorf("malformed stream line: %q", string(raw))
		}
		return string(code), payload, nil
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream sends the conversation and streams the assistant turn back
// through the callback. The chat thread ID rides in the X-Chat-ID header.
// A 429 maps to ErrRateLimited before any event is delivered; the backend
// refuses rate-limited turns up front.
func (c *Client) ChatStream(ctx context.Context, accessToken, chatID string, messages []ChatMessage, callback StreamCallback) error {
	if accessToken == "" {
		return ErrNoSession
	}

	reqBody := chatRequest{
		Messages: messages,
		Tools:    []any{},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("Connection", "keep-alive")
	httpReq.Header.Set("X-Chat-ID", chatID)
	c.setCommonHeaders(httpReq, accessToken)

	// PERFORMANCE: Use shared streaming client with connection pooling (timeout handled via context)
	// SECURITY: TLS 1.2+ enforced via shared client configuration
	resp, err := c.do(ctx, sharedStreamingClient, httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := readBody(resp)
		return handleErrorResponse(resp.StatusCode, body)
	}

	return processStream(ctx, resp.Body, callback)
}

// processStream reads and dispatches data-stream events until the turn
// finishes or the stream ends.
func processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewDataStreamReader(body)

	var partial strings.Builder
	pending := make(map[string]ToolCall)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		code, payload, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return &StreamError{Partial: partial.String(), Err: err}
		}

		switch code {
		case prefixText:
			var delta string
			if err := json.Unmarshal(payload, &delta); err != nil {
				// Skip malformed deltas
				continue
			}
			partial.WriteString(delta)
			callback(StreamEvent{Kind: EventText, Text: delta})

		case prefixToolCall:
			var call ToolCall
			if err := json.Unmarshal(payload, &call); err != nil {
				continue
			}
			pending[call.ID] = call
			callback(StreamEvent{Kind: EventToolCall, Tool: call})

		case prefixToolResult:
			var res ToolCall
			if err := json.Unmarshal(payload, &res); err != nil {
				continue
			}
			if call, ok := pending[res.ID]; ok {
				res.Name = call.Name
				res.Args = call.Args
				delete(pending, res.ID)
			}
			res.Complete = true
			callback(StreamEvent{Kind: EventToolResult, Tool: res})

		case prefixError:
			var detail string
			if err := json.Unmarshal(payload, &detail); err != nil {
				detail = string(payload)
			}
			return &StreamError{
				Partial: partial.String(),
				Err:     fmt.Errorf("server stream error: %s", detail),
			}

		case prefixFinishMsg:
			callback(StreamEvent{Kind: EventFinish})
			return nil

		case prefixFinishStep:
			// Intermediate step boundary (tool round-trips); keep reading.

		default:
			// Unknown prefix codes are ignored for forward compatibility.
		}
	}
}

// ChatStreamAccumulate streams a turn and returns the full assistant text.
// On mid-stream failure the partial content is returned alongside the error.
func (c *Client) ChatStreamAccumulate(ctx context.Context, accessToken, chatID string, messages []ChatMessage) (string, error) {
	var accumulated strings.Builder

	err := c.ChatStream(ctx, accessToken, chatID, messages, func(ev StreamEvent) {
		if ev.Kind == EventText {
			accumulated.WriteString(ev.Text)
		}
	})
	return accumulated.String(), err
}
