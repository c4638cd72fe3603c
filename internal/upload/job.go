// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/commentsense/sense-tui/internal/api"
)

// =============================================================================
// VALIDATION
// =============================================================================

// MaxFileSize is the largest upload the backend accepts.
const MaxFileSize = 10 * 1024 * 1024 // 10MB

var (
	// ErrUnsupportedType indicates a file outside the accepted set.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates a file over the size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyFile indicates a zero-byte file.
	ErrEmptyFile = errors.New("file is empty")
)

// allowedExtensions is the accepted evaluation document set.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".csv":  true,
	".xls":  true,
	".xlsx": true,
}

// ValidateFile checks a candidate upload client-side. A rejected file
// issues no network request.
func ValidateFile(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %s (accepted: pdf, csv, xls, xlsx)", ErrUnsupportedType, ext)
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > MaxFileSize {
		return fmt.Errorf("%w: %s exceeds the %s limit",
			ErrFileTooLarge, humanize.Bytes(uint64(size)), humanize.Bytes(uint64(MaxFileSize)))
	}
	return nil
}

// =============================================================================
// JOB
// =============================================================================

// Job is one file's server-side processing lifecycle, tracked client-side
// by a pre-generated identifier.
type Job struct {
	// FileID is generated before the upload request so the progress
	// endpoint can be polled immediately.
	FileID   string
	FileName string

	// Status mirrors the latest sample verbatim.
	Status string

	// ProgressPercent is the last reported true value; DisplayedPercent
	// is the smoothed value the UI renders and may lag behind.
	ProgressPercent  float64
	DisplayedPercent float64

	// Auxiliary fields, verbatim from the latest sample.
	Message string
	Stats   api.ProgressStats
}

// NewJob creates a job for a validated file with a fresh identity.
func NewJob(fileName string) *Job {
	return &Job{
		FileID:   uuid.NewString(),
		FileName: fileName,
		Status:   api.StatusStarted,
	}
}

// Terminal reports whether the job has reached a final status.
func (j *Job) Terminal() bool {
	return j.Status == api.StatusCompleted || j.Status == api.StatusError
}

// Failed reports whether the job ended in error.
func (j *Job) Failed() bool {
	return j.Status == api.StatusError
}
