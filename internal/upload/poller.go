// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/commentsense/sense-tui/internal/api"
)

// =============================================================================
// POLLER CONSTANTS
// =============================================================================

const (
	// PollInterval is the fixed progress sampling period.
	PollInterval = time.Second

	// AnimationInterval is the easing tick period.
	AnimationInterval = 50 * time.Millisecond

	// easeGain is the fraction of the remaining gap applied per tick.
	easeGain = 0.1

	// easeSnapDistance is how close the displayed value must get before
	// snapping to the target.
	easeSnapDistance = 0.5

	// maxEaseTicks bounds the easing burst triggered by one sample.
	maxEaseTicks = 60

	// jumpThreshold is the largest forward jump applied directly; larger
	// jumps (and any regression) are eased.
	jumpThreshold = 20.0

	// MaxConsecutiveFailures is how many poll failures in a row are
	// tolerated before the job is declared failed. Individual failures
	// are logged and skipped.
	MaxConsecutiveFailures = 10
)

// ErrJobActive indicates a second upload was started while one is still
// processing. Only one job polls at a time.
var ErrJobActive = errors.New("an upload is already in progress")

// =============================================================================
// DEPENDENCIES
// =============================================================================

// ProgressSource fetches one processing sample for a job.
type ProgressSource interface {
	Progress(ctx context.Context, accessToken, fileID string) (*api.ProgressReport, error)
}

// TokenSource supplies a fresh access token per request. Satisfied by
// auth.Guard.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is one observable update of a polled job.
type Snapshot struct {
	FileID    string
	FileName  string
	Status    string
	Displayed float64
	Progress  float64
	Message   string
	Stats     api.ProgressStats

	// Err is set on the final snapshot when the job fails.
	Err error
}

// Terminal reports whether this is the job's final snapshot.
func (s Snapshot) Terminal() bool {
	return s.Status == api.StatusCompleted || s.Status == api.StatusError
}

// =============================================================================
// POLLER
// =============================================================================

// Poller starts progress-tracking tasks, enforcing one active job.
type Poller struct {
	mu     sync.Mutex
	active *Task

	source ProgressSource
	tokens TokenSource

	pollInterval time.Duration
	animInterval time.Duration
}

// NewPoller creates a poller over a progress source and token source.
func NewPoller(source ProgressSource, tokens TokenSource) *Poller {
	return &Poller{
		source:       source,
		tokens:       tokens,
		pollInterval: PollInterval,
		animInterval: AnimationInterval,
	}
}

// WithIntervals overrides the poll and animation periods.
func (p *Poller) WithIntervals(poll, anim time.Duration) *Poller {
	p.pollInterval = poll
	p.animInterval = anim
	return p
}

// Start begins polling for a job and returns its task handle. Returns
// ErrJobActive while another job is still running.
func (p *Poller) Start(job *Job) (*Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil && !p.active.Finished() {
		return nil, ErrJobActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		job:     job,
		fileID:  job.FileID,
		poller:  p,
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan Snapshot, 64),
		done:    make(chan struct{}),
	}
	p.active = t

	go t.run()
	return t, nil
}

// Active returns the running task, or nil.
func (p *Poller) Active() *Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil && p.active.Finished() {
		p.active = nil
	}
	return p.active
}

// =============================================================================
// TASK
// =============================================================================

// Task is one job's cancellable polling loop. Stopping the task is the
// single teardown point for its timers.
type Task struct {
	job    *Job
	fileID string
	poller *Poller

	ctx    context.Context
	cancel context.CancelFunc

	updates chan Snapshot
	done    chan struct{}
}

// Job returns the tracked job. The task goroutine mutates it; readers on
// other goroutines should use the snapshots from Updates instead.
func (t *Task) Job() *Job {
	return t.job
}

// FileID returns the job's immutable identifier.
func (t *Task) FileID() string {
	return t.fileID
}

// Updates delivers snapshots in order. The channel closes when the job
// reaches a terminal status or the task is stopped.
func (t *Task) Updates() <-chan Snapshot {
	return t.updates
}

// Stop cancels the task. Idempotent.
func (t *Task) Stop() {
	t.cancel()
	<-t.done
}

// Finished reports whether the task's loop has exited.
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// run drives the poll and animation timers until a terminal sample,
// repeated failure, or cancellation.
func (t *Task) run() {
	defer close(t.done)
	defer close(t.updates)

	pollTicker := time.NewTicker(t.poller.pollInterval)
	defer pollTicker.Stop()
	animTicker := time.NewTicker(t.poller.animInterval)
	defer animTicker.Stop()

	var (
		target    = t.job.DisplayedPercent
		easeTicks = 0
		failures  = 0
		polling   = true
	)

	// First sample immediately; the upload call runs concurrently.
	if stop := t.poll(&target, &easeTicks, &failures, &polling); stop {
		return
	}

	for {
		select {
		case <-t.ctx.Done():
			return

		case <-pollTicker.C:
			if !polling {
				continue
			}
			if stop := t.poll(&target, &easeTicks, &failures, &polling); stop {
				return
			}

		case <-animTicker.C:
			if t.job.DisplayedPercent == target {
				// Settled. A terminal job ends once its easing lands.
				if !polling {
					return
				}
				continue
			}
			if easeTicks <= 0 {
				if !polling {
					// No further samples are coming; land directly.
					t.job.DisplayedPercent = target
					t.emit(nil)
					return
				}
				// Burst exhausted; stay lagged until the next sample.
				continue
			}
			easeTicks--

			gap := target - t.job.DisplayedPercent
			if gap > -easeSnapDistance && gap < easeSnapDistance {
				t.job.DisplayedPercent = target
			} else {
				t.job.DisplayedPercent += gap * easeGain
			}
			if !t.emit(nil) {
				return
			}
		}
	}
}

// poll takes one sample and folds it into the job. Returns true when the
// task should exit immediately.
func (t *Task) poll(target *float64, easeTicks *int, failures *int, polling *bool) bool {
	sample, err := t.sample()
	if err != nil {
		*failures++
		log.Printf("progress poll failed for %s (%d/%d): %v",
			t.job.FileID, *failures, MaxConsecutiveFailures, err)
		if *failures < MaxConsecutiveFailures {
			return false
		}
		// The backend has been unreachable for the whole failure budget;
		// declare the job failed rather than polling forever.
		t.job.Status = api.StatusError
		t.job.Message = "lost contact with the server during processing"
		t.job.DisplayedPercent = *target
		t.emit(fmt.Errorf("progress polling gave up: %w", err))
		return true
	}
	*failures = 0

	// Auxiliary fields verbatim; only the percentage is smoothed.
	t.job.Status = sample.Status
	t.job.Message = sample.Message
	t.job.Stats = sample.Stats
	t.job.ProgressPercent = clampPercent(sample.Progress)

	newTarget := t.job.ProgressPercent
	switch {
	case newTarget < t.job.DisplayedPercent,
		newTarget-t.job.DisplayedPercent > jumpThreshold:
		// Regression or large jump: ease toward it.
		*target = newTarget
		*easeTicks = maxEaseTicks
	default:
		t.job.DisplayedPercent = newTarget
		*target = newTarget
	}

	if sample.Terminal() {
		// No further polls for this job.
		*polling = false
		if t.job.Failed() {
			// A failed job surfaces its server message at once; there is
			// nothing left to animate.
			t.emit(errors.New(t.job.Message))
			return true
		}
		// Completed: let the easing land on the final value, then end.
		*easeTicks = maxEaseTicks
		if t.job.DisplayedPercent == *target {
			t.emit(nil)
			return true
		}
	}

	return !t.emit(nil)
}

// sample fetches one progress report with a fresh token.
func (t *Task) sample() (*api.ProgressReport, error) {
	token, err := t.poller.tokens.AccessToken(t.ctx)
	if err != nil {
		return nil, err
	}
	return t.poller.source.Progress(t.ctx, token, t.job.FileID)
}

// emit delivers a snapshot; returns false when the task was cancelled.
func (t *Task) emit(err error) bool {
	snap := Snapshot{
		FileID:    t.job.FileID,
		FileName:  t.job.FileName,
		Status:    t.job.Status,
		Displayed: t.job.DisplayedPercent,
		Progress:  t.job.ProgressPercent,
		Message:   t.job.Message,
		Stats:     t.job.Stats,
		Err:       err,
	}
	select {
	case t.updates <- snap:
		return true
	case <-t.ctx.Done():
		return false
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
