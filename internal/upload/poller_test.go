// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/commentsense/sense-tui/internal/api"
)

// scriptedSource replays a fixed sequence of progress samples, repeating
// the last one once exhausted.
type scriptedSource struct {
	samples []api.ProgressReport
	errs    []error
	calls   atomic.Int32
}

func (s *scriptedSource) Progress(_ context.Context, _, _ string) (*api.ProgressReport, error) {
	n := int(s.calls.Add(1)) - 1
	if n < len(s.errs) && s.errs[n] != nil {
		return nil, s.errs[n]
	}
	if n >= len(s.samples) {
		n = len(s.samples) - 1
	}
	sample := s.samples[n]
	return &sample, nil
}

type staticTokens struct{}

func (staticTokens) AccessToken(context.Context) (string, error) { return "acc", nil }

// fastPoller returns a poller with intervals shrunk for tests.
func fastPoller(source ProgressSource) *Poller {
	return NewPoller(source, staticTokens{}).WithIntervals(5*time.Millisecond, time.Millisecond)
}

// collect drains a task's updates until the channel closes or the timeout
// elapses.
func collect(t *testing.T, task *Task, timeout time.Duration) []Snapshot {
	t.Helper()
	var snaps []Snapshot
	deadline := time.After(timeout)
	for {
		select {
		case snap, ok := <-task.Updates():
			if !ok {
				return snaps
			}
			snaps = append(snaps, snap)
		case <-deadline:
			t.Fatalf("timed out with %d snapshots", len(snaps))
		}
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidateFile(t *testing.T) {
	require.NoError(t, ValidateFile("evals.pdf", 1024))
	require.NoError(t, ValidateFile("EVALS.CSV", 1024))
	require.NoError(t, ValidateFile("fall.xlsx", MaxFileSize))

	require.ErrorIs(t, ValidateFile("notes.txt", 1024), ErrUnsupportedType)
	require.ErrorIs(t, ValidateFile("evals", 1024), ErrUnsupportedType)
	require.ErrorIs(t, ValidateFile("evals.pdf", MaxFileSize+1), ErrFileTooLarge)
	require.ErrorIs(t, ValidateFile("evals.pdf", 0), ErrEmptyFile)
}

func TestValidateFile_RejectionIssuesNoNetwork(t *testing.T) {
	// A rejected file never reaches the poller or the upload call; the
	// validation is purely local. Guard the property by checking a
	// source is never consulted for an invalid file's job.
	source := &scriptedSource{samples: []api.ProgressReport{{Status: api.StatusStarted}}}

	err := ValidateFile("notes.txt", 512)
	require.ErrorIs(t, err, ErrUnsupportedType)
	require.Zero(t, source.calls.Load())
}

func TestNewJob(t *testing.T) {
	a := NewJob("evals.pdf")
	b := NewJob("evals.pdf")
	require.NotEmpty(t, a.FileID)
	require.NotEqual(t, a.FileID, b.FileID)
	require.Equal(t, api.StatusStarted, a.Status)
	require.False(t, a.Terminal())
}

// =============================================================================
// SMOOTHING TESTS
// =============================================================================

func TestPoller_SmoothsRegressionsAndJumps(t *testing.T) {
	// A regression (10 -> 8) and a large jump
	// (8 -> 95) must both be eased, never applied in one step.
	source := &scriptedSource{samples: []api.ProgressReport{
		{Progress: 10, Status: api.StatusProcessing},
		{Progress: 8, Status: api.StatusProcessing},
		{Progress: 95, Status: api.StatusProcessing},
		{Progress: 100, Status: api.StatusCompleted, Message: "done"},
	}}

	task, err := fastPoller(source).Start(NewJob("evals.pdf"))
	require.NoError(t, err)
	snaps := collect(t, task, 5*time.Second)
	require.NotEmpty(t, snaps)

	prev := 0.0
	for i, snap := range snaps {
		delta := snap.Displayed - prev
		require.LessOrEqualf(t, delta, 20.0,
			"snapshot %d jumped forward %.1f points", i, delta)
		require.GreaterOrEqualf(t, delta, -1.0,
			"snapshot %d jumped backward %.1f points", i, delta)
		prev = snap.Displayed
	}

	final := snaps[len(snaps)-1]
	require.Equal(t, api.StatusCompleted, final.Status)
	require.Equal(t, 100.0, final.Displayed, "easing must land on the final value")
}

func TestPoller_SmallForwardStepsApplyDirectly(t *testing.T) {
	source := &scriptedSource{samples: []api.ProgressReport{
		{Progress: 15, Status: api.StatusProcessing},
		{Progress: 30, Status: api.StatusProcessing},
		{Progress: 100, Status: api.StatusCompleted},
	}}

	task, err := fastPoller(source).Start(NewJob("evals.pdf"))
	require.NoError(t, err)
	snaps := collect(t, task, 5*time.Second)

	// 15 and 30 are within the direct-apply window and must appear as
	// exact displayed values.
	seen := map[float64]bool{}
	for _, snap := range snaps {
		seen[snap.Displayed] = true
	}
	require.True(t, seen[15.0], "direct apply of 15 expected")
	require.True(t, seen[30.0], "direct apply of 30 expected")
}

func TestPoller_AuxiliaryFieldsVerbatim(t *testing.T) {
	source := &scriptedSource{samples: []api.ProgressReport{
		{
			Progress: 40,
			Status:   api.StatusProcessing,
			Message:  "Embedding batch 2 of 5",
			Stats:    api.ProgressStats{CurrentBatch: 2, TotalBatches: 5},
		},
		{Progress: 100, Status: api.StatusCompleted},
	}}

	task, err := fastPoller(source).Start(NewJob("evals.pdf"))
	require.NoError(t, err)
	snaps := collect(t, task, 5*time.Second)

	found := false
	for _, snap := range snaps {
		if snap.Message == "Embedding batch 2 of 5" {
			require.Equal(t, 2, snap.Stats.CurrentBatch)
			require.Equal(t, 5, snap.Stats.TotalBatches)
			found = true
		}
	}
	require.True(t, found, "sample message and stats must pass through unsmoothed")
}

// =============================================================================
// TERMINATION TESTS
// =============================================================================

func TestPoller_StopsPollingAfterTerminalSample(t *testing.T) {
	source := &scriptedSource{samples: []api.ProgressReport{
		{Progress: 100, Status: api.StatusCompleted},
	}}

	task, err := fastPoller(source).Start(NewJob("evals.pdf"))
	require.NoError(t, err)
	collect(t, task, 5*time.Second)

	polls := source.calls.Load()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, polls, source.calls.Load(),
		"no polls may be issued after a terminal sample")
}

func TestPoller_ErrorStatusSurfacesMessage(t *testing.T) {
	source := &scriptedSource{samples: []api.ProgressReport{
		{Progress: 30, Status: api.StatusProcessing},
		{Progress: 30, Status: api.StatusError, Message: "unreadable PDF"},
	}}

	task, err := fastPoller(source).Start(NewJob("evals.pdf"))
	require.NoError(t, err)
	snaps := collect(t, task, 5*time.Second)

	final := snaps[len(snaps)-1]
	require.Equal(t, api.StatusError, final.Status)
	require.Error(t, final.Err)
	require.Contains(t, final.Err.Error(), "unreadable PDF")
}

func TestPoller_TransientFailuresAreSkipped(t *testing.T) {
	source := &scriptedSource{
		errs: []error{errors.New("timeout"), errors.New("timeout")},
		samples: []api.ProgressReport{
			{}, {}, // consumed by the two error slots
			{Progress: 100, Status: api.StatusCompleted},
		},
	}

	task, err := fastPoller(source).Start(NewJob("evals.pdf"))
	require.NoError(t, err)
	snaps := collect(t, task, 5*time.Second)

	final := snaps[len(snaps)-1]
	require.Equal(t, api.StatusCompleted, final.Status)
	require.NoError(t, final.Err)
}

func TestPoller_GivesUpAfterConsecutiveFailures(t *testing.T) {
	errs := make([]error, MaxConsecutiveFailures)
	for i := range errs {
		errs[i] = errors.New("connection refused")
	}
	source := &scriptedSource{errs: errs, samples: []api.ProgressReport{{}}}

	task, err := fastPoller(source).Start(NewJob("evals.pdf"))
	require.NoError(t, err)
	snaps := collect(t, task, 5*time.Second)

	final := snaps[len(snaps)-1]
	require.Equal(t, api.StatusError, final.Status)
	require.Error(t, final.Err)
}

// =============================================================================
// SINGLE ACTIVE JOB / CANCELLATION TESTS
// =============================================================================

func TestPoller_SingleActiveJob(t *testing.T) {
	source := &scriptedSource{samples: []api.ProgressReport{
		{Progress: 10, Status: api.StatusProcessing},
	}}
	poller := fastPoller(source)

	task, err := poller.Start(NewJob("first.pdf"))
	require.NoError(t, err)
	defer task.Stop()

	_, err = poller.Start(NewJob("second.pdf"))
	require.ErrorIs(t, err, ErrJobActive)
}

func TestPoller_NewJobAllowedAfterFinish(t *testing.T) {
	source := &scriptedSource{samples: []api.ProgressReport{
		{Progress: 100, Status: api.StatusCompleted},
	}}
	poller := fastPoller(source)

	task, err := poller.Start(NewJob("first.pdf"))
	require.NoError(t, err)
	collect(t, task, 5*time.Second)

	second, err := poller.Start(NewJob("second.pdf"))
	require.NoError(t, err)
	second.Stop()
}

func TestTask_StopCancelsPromptly(t *testing.T) {
	source := &scriptedSource{samples: []api.ProgressReport{
		{Progress: 10, Status: api.StatusProcessing},
	}}

	task, err := fastPoller(source).Start(NewJob("evals.pdf"))
	require.NoError(t, err)

	task.Stop()
	require.True(t, task.Finished())

	// Updates channel must be closed after stop.
	for range task.Updates() {
	}
}
