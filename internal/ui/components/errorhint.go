// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the sense TUI.
package components

import (
	"errors"
	"strings"
	"sync"

	"github.com/commentsense/sense-tui/internal/api"
	"github.com/commentsense/sense-tui/internal/upload"
)

// =============================================================================
// ERROR CATEGORIES
// =============================================================================

// ErrorCategory represents the type of error for display grouping.
type ErrorCategory string

const (
	// CategoryNetwork represents network and connectivity errors
	CategoryNetwork ErrorCategory = "Network"
	// CategoryAuth represents authentication and session errors
	CategoryAuth ErrorCategory = "Session"
	// CategoryUpload represents file upload errors
	CategoryUpload ErrorCategory = "Upload"
	// CategoryLimit represents request limit errors
	CategoryLimit ErrorCategory = "Limit"
	// CategoryServer represents backend failures
	CategoryServer ErrorCategory = "Server"
	// CategoryUnknown represents unclassified errors
	CategoryUnknown ErrorCategory = "Error"
)

// =============================================================================
// ERROR HINT MATCHER
// =============================================================================

// ErrorHint is a user-facing rendering of a raw error: a short title and a
// concrete next step, suitable for a toast.
type ErrorHint struct {
	Category   ErrorCategory
	Title      string
	Suggestion string
}

// hintPattern matches a sentinel error or message keywords to a hint.
type hintPattern struct {
	// sentinel matches via errors.Is when set.
	sentinel error

	// keywords match case-insensitively against the message when no
	// sentinel matched. Any keyword hit triggers the pattern.
	keywords []string

	hint ErrorHint
}

// HintMatcher maps errors to user-facing hints. Patterns are checked in
// registration order, most specific first.
type HintMatcher struct {
	mu       sync.RWMutex
	patterns []hintPattern
}

var (
	defaultMatcher     *HintMatcher
	defaultMatcherOnce sync.Once
)

// DefaultHintMatcher returns the singleton matcher.
func DefaultHintMatcher() *HintMatcher {
	defaultMatcherOnce.Do(func() {
		defaultMatcher = NewHintMatcher()
	})
	return defaultMatcher
}

// NewHintMatcher creates a matcher preloaded with the API and upload error
// patterns. Specific patterns are registered before general ones; the
// first match wins.
func NewHintMatcher() *HintMatcher {
	m := &HintMatcher{}

	m.add(hintPattern{
		sentinel: api.ErrRateLimited,
		hint: ErrorHint{
			Category:   CategoryLimit,
			Title:      "Request limit reached",
			Suggestion: "Wait for your usage to reset before sending more messages",
		},
	})
	m.add(hintPattern{
		sentinel: api.ErrUnauthorized,
		hint: ErrorHint{
			Category:   CategoryAuth,
			Title:      "Session expired",
			Suggestion: "Sign in again to continue",
		},
	})
	m.add(hintPattern{
		sentinel: api.ErrEmailTaken,
		hint: ErrorHint{
			Category:   CategoryAuth,
			Title:      "Email already registered",
			Suggestion: "Sign in instead, or use a different email",
		},
	})
	m.add(hintPattern{
		sentinel: upload.ErrFileTooLarge,
		hint: ErrorHint{
			Category:   CategoryUpload,
			Title:      "File too large",
			Suggestion: "Split the document or export a smaller evaluation set",
		},
	})
	m.add(hintPattern{
		sentinel: upload.ErrUnsupportedType,
		hint: ErrorHint{
			Category:   CategoryUpload,
			Title:      "Unsupported file type",
			Suggestion: "Upload a pdf, csv, xls, or xlsx file",
		},
	})
	m.add(hintPattern{
		sentinel: upload.ErrEmptyFile,
		hint: ErrorHint{
			Category:   CategoryUpload,
			Title:      "Empty file",
			Suggestion: "The selected file has no content",
		},
	})
	m.add(hintPattern{
		keywords: []string{"connection refused", "no such host", "network is unreachable", "dial tcp"},
		hint: ErrorHint{
			Category:   CategoryNetwork,
			Title:      "Cannot reach the server",
			Suggestion: "Check your connection and the configured API URL",
		},
	})
	m.add(hintPattern{
		keywords: []string{"timeout", "deadline exceeded"},
		hint: ErrorHint{
			Category:   CategoryNetwork,
			Title:      "Request timed out",
			Suggestion: "The server is slow or unreachable; try again",
		},
	})

	return m
}

// add registers a pattern.
func (m *HintMatcher) add(p hintPattern) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, p)
}

// Match returns the hint for err, or nil when no pattern applies.
func (m *HintMatcher) Match(err error) *ErrorHint {
	if err == nil {
		return nil
	}

	// Backend 5xx responses arrive as *APIError rather than a sentinel.
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 500 {
		return &ErrorHint{
			Category:   CategoryServer,
			Title:      "Server error",
			Suggestion: "The backend hit a problem; try again in a moment",
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	msg := strings.ToLower(err.Error())
	for i := range m.patterns {
		p := &m.patterns[i]
		if p.sentinel != nil && errors.Is(err, p.sentinel) {
			hint := p.hint
			return &hint
		}
		for _, kw := range p.keywords {
			if strings.Contains(msg, kw) {
				hint := p.hint
				return &hint
			}
		}
	}
	return nil
}

// Friendly renders err as a toast-ready message: the matched hint's title
// and suggestion, or the raw error text when nothing matches.
func (m *HintMatcher) Friendly(err error) string {
	if err == nil {
		return ""
	}
	if hint := m.Match(err); hint != nil {
		return hint.Title + ": " + hint.Suggestion
	}
	return err.Error()
}
