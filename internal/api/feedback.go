// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Feedback type values accepted by the backend.
const (
	FeedbackPositive = "positive"
	FeedbackNegative = "negative"
)

// Feedback is a user rating of an assistant response.
type Feedback struct {
	FeedbackType string `json:"feedback_type"`
	Rating       int    `json:"rating"` // 1-5 stars
	FeedbackText string `json:"feedback_text,omitempty"`
	MessageID    string `json:"message_id,omitempty"`
}

// Validate checks the rating range and type before any network call.
func (f Feedback) Validate() error {
	if f.FeedbackType != FeedbackPositive && f.FeedbackType != FeedbackNegative {
		return fmt.Errorf("invalid feedback type: %q", f.FeedbackType)
	}
	if f.Rating < 1 || f.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", f.Rating)
	}
	return nil
}

// SubmitFeedback posts a rating for an assistant response. Callers treat
// failures as non-fatal: feedback is best-effort and never interrupts the
// conversation.
func (c *Client) SubmitFeedback(ctx context.Context, accessToken string, fb Feedback) error {
	if accessToken == "" {
		return ErrNoSession
	}
	if err := fb.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}

	return c.doJSON(ctx, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/feedback/", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		c.setCommonHeaders(httpReq, accessToken)
		return httpReq, nil
	}, nil)
}
