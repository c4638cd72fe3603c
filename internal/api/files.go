// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// =============================================================================
// FILE TYPES
// =============================================================================

// Processing status values reported by the progress endpoint.
const (
	StatusStarted    = "started"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// ProgressStats carries the optional batch/chunk counters the backend
// includes while a document is being chunked and embedded.
type ProgressStats struct {
	ProcessedChunks        int     `json:"processed_chunks,omitempty"`
	TotalChunks            int     `json:"total_chunks,omitempty"`
	CurrentBatch           int     `json:"current_batch,omitempty"`
	TotalBatches           int     `json:"total_batches,omitempty"`
	EstimatedTimeRemaining float64 `json:"estimated_time_remaining,omitempty"`
}

// ProgressReport is one sample from the progress endpoint for an upload
// that is processing server-side.
type ProgressReport struct {
	Progress float64       `json:"progress"`
	Message  string        `json:"message"`
	Status   string        `json:"status"`
	Stats    ProgressStats `json:"stats"`
}

// Terminal reports whether processing has reached a final state and
// polling should stop.
func (r ProgressReport) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusError
}

// UploadAck is the backend's acknowledgment of an accepted upload.
type UploadAck struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
}

// =============================================================================
// FILE ENDPOINTS
// =============================================================================

// Upload sends a document as multipart form data. The file ID is generated
// client-side before the request so progress can be polled without waiting
// for the server to acknowledge. Uploads are never retried: the backend may
// have started processing even when the response is lost.
func (c *Client) Upload(ctx context.Context, accessToken, fileID, filename string, content io.Reader) (*UploadAck, error) {
	if accessToken == "" {
		return nil, ErrNoSession
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if err := writer.WriteField("file_id", fileID); err != nil {
		return nil, fmt.Errorf("failed to write file_id field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/files/upload", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	c.setCommonHeaders(httpReq, accessToken)

	var ack UploadAck
	if err := c.attemptJSON(ctx, httpReq, &ack); err != nil {
		return nil, err
	}
	if ack.FileID == "" {
		ack.FileID = fileID
	}
	return &ack, nil
}

// Progress fetches one processing sample for an uploading file. Callers
// poll this on a fixed interval; an individual failed sample is not fatal.
func (c *Client) Progress(ctx context.Context, accessToken, fileID string) (*ProgressReport, error) {
	if accessToken == "" {
		return nil, ErrNoSession
	}

	// Single attempt only. The poll loop is its own retry mechanism;
	// stacking client retries under a 1s tick would pile up requests.
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/files/progress/"+fileID, nil)
	if err != nil {
		return nil, err
	}
	c.setCommonHeaders(httpReq, accessToken)

	var report ProgressReport
	if err := c.attemptJSON(ctx, httpReq, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteFile removes an uploaded document and its derived vectors.
func (c *Client) DeleteFile(ctx context.Context, accessToken, fileID string) error {
	if accessToken == "" {
		return ErrNoSession
	}

	return c.doJSON(ctx, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete,
			c.baseURL+"/api/files/"+fileID, nil)
		if err != nil {
			return nil, err
		}
		c.setCommonHeaders(httpReq, accessToken)
		return httpReq, nil
	}, nil)
}
