// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/commentsense/sense-tui/internal/api"
)

type fakeProfileSource struct {
	mu      sync.Mutex
	used    int
	limit   int
	err     error
	fetches int
}

func (f *fakeProfileSource) Me(_ context.Context, _ string) (*api.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return &api.Profile{RequestsUsed: f.used, RequestsLimit: f.limit}, nil
}

type fakeTokenSource struct {
	err error
}

func (f *fakeTokenSource) AccessToken(_ context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "tok", nil
}

func TestIncrementClampsToLimit(t *testing.T) {
	s := NewStore(&fakeProfileSource{}, &fakeTokenSource{})
	s.Set(48, 50)

	for i := 0; i < 10; i++ {
		s.Increment()
	}

	got := s.Stats()
	require.Equal(t, 50, got.Used, "used must never exceed the limit")
	require.Equal(t, 50, got.Limit)
	require.True(t, got.Exhausted())
	require.Equal(t, 0, got.Remaining())
}

func TestIncrementWithoutKnownLimit(t *testing.T) {
	s := NewStore(&fakeProfileSource{}, &fakeTokenSource{})

	s.Increment()
	s.Increment()

	// Before the first authoritative fetch the limit is unknown; the
	// counter still moves so the header is not frozen at zero.
	got := s.Stats()
	require.Equal(t, 2, got.Used)
	require.False(t, got.Exhausted())
}

func TestRefreshOverwritesOptimisticState(t *testing.T) {
	src := &fakeProfileSource{used: 3, limit: 50}
	s := NewStore(src, &fakeTokenSource{})

	s.Set(0, 50)
	for i := 0; i < 20; i++ {
		s.Increment()
	}
	require.Equal(t, 20, s.Stats().Used)

	require.NoError(t, s.Refresh(context.Background()))

	// The fetch is authoritative in both directions, including downward.
	require.Equal(t, 3, s.Stats().Used)
}

func TestRefreshFailureKeepsCurrentView(t *testing.T) {
	src := &fakeProfileSource{err: errors.New("boom")}
	s := NewStore(src, &fakeTokenSource{})
	s.Set(7, 50)

	require.Error(t, s.Refresh(context.Background()))
	require.Equal(t, 7, s.Stats().Used)
}

func TestRefreshTokenFailure(t *testing.T) {
	src := &fakeProfileSource{used: 1, limit: 50}
	s := NewStore(src, &fakeTokenSource{err: errors.New("no session")})
	s.Set(7, 50)

	require.Error(t, s.Refresh(context.Background()))
	require.Equal(t, 0, src.fetches, "must not hit the backend without a token")
	require.Equal(t, 7, s.Stats().Used)
}

func TestSubscribersSeeEveryChange(t *testing.T) {
	s := NewStore(&fakeProfileSource{}, &fakeTokenSource{})

	var mu sync.Mutex
	var events []Event
	cancel := s.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	s.Set(0, 50)
	s.Increment()
	s.SignalRateLimited()

	mu.Lock()
	require.Len(t, events, 3)
	require.Equal(t, 1, events[1].Stats.Used)
	require.False(t, events[1].RateLimited)
	require.True(t, events[2].RateLimited, "429 must carry the distinct signal")
	mu.Unlock()

	cancel()
	s.Increment()

	mu.Lock()
	require.Len(t, events, 3, "cancelled subscriber must not be notified")
	mu.Unlock()
}

func TestSignalRateLimitedSnapsToLimit(t *testing.T) {
	s := NewStore(&fakeProfileSource{}, &fakeTokenSource{})
	s.Set(12, 50)

	s.SignalRateLimited()

	got := s.Stats()
	require.Equal(t, 50, got.Used)
	require.True(t, got.Exhausted())
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &fakeProfileSource{used: 2, limit: 50}
	s := NewStore(src, &fakeTokenSource{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// The initial fetch happens before the ticker loop; wait for it via
	// the store itself.
	require.Eventually(t, func() bool {
		return s.Stats().Used == 2
	}, 2*time.Second, time.Millisecond)

	cancel()
	<-done
}
