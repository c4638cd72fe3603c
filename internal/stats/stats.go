// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stats tracks the account's request allowance.
//
// The store is shared and observable: views subscribe for updates rather
// than polling it. Two writers feed it — optimistic increments after each
// assistant response, and a periodic authoritative fetch of the profile.
// The fetch always overwrites local increments; staleness between fetches
// is cosmetic only.
package stats

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/commentsense/sense-tui/internal/api"
)

// RefreshInterval is the period of the authoritative allowance fetch.
const RefreshInterval = 60 * time.Second

// =============================================================================
// STATS
// =============================================================================

// Stats is a point-in-time view of the request allowance.
type Stats struct {
	Used  int
	Limit int
}

// Remaining returns the requests left, never negative.
func (s Stats) Remaining() int {
	r := s.Limit - s.Used
	if r < 0 {
		return 0
	}
	return r
}

// Exhausted reports whether the allowance is used up.
func (s Stats) Exhausted() bool {
	return s.Limit > 0 && s.Used >= s.Limit
}

// Event is delivered to subscribers on every store change.
type Event struct {
	Stats Stats

	// RateLimited marks a backend 429; the UI shows the blocking
	// rate-limit dialog on this signal, not on Exhausted alone.
	RateLimited bool
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// ProfileSource fetches the authoritative profile with allowance counters.
type ProfileSource interface {
	Me(ctx context.Context, accessToken string) (*api.Profile, error)
}

// TokenSource supplies a fresh access token per request. Satisfied by
// auth.Guard.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// =============================================================================
// STORE
// =============================================================================

// Store is the process-wide observable allowance store.
type Store struct {
	mu      sync.Mutex
	stats   Stats
	subs    map[int]func(Event)
	nextSub int

	source   ProfileSource
	tokens   TokenSource
	interval time.Duration
}

// NewStore creates a store over a profile source and token source.
func NewStore(source ProfileSource, tokens TokenSource) *Store {
	return &Store{
		subs:     make(map[int]func(Event)),
		source:   source,
		tokens:   tokens,
		interval: RefreshInterval,
	}
}

// WithInterval overrides the authoritative refresh period.
func (s *Store) WithInterval(d time.Duration) *Store {
	s.interval = d
	return s
}

// Stats returns the current allowance view.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Subscribe registers a callback for store changes and returns its cancel
// function. Callbacks run outside the store lock.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// publish snapshots the subscriber set under lock and notifies outside it.
func (s *Store) publish(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// =============================================================================
// WRITERS
// =============================================================================

// Increment optimistically counts one request, clamped to the limit. The
// next authoritative fetch overwrites whatever this produced.
func (s *Store) Increment() {
	s.mu.Lock()
	if s.stats.Limit == 0 || s.stats.Used < s.stats.Limit {
		s.stats.Used++
	}
	if s.stats.Limit > 0 && s.stats.Used > s.stats.Limit {
		s.stats.Used = s.stats.Limit
	}
	ev := Event{Stats: s.stats}
	s.mu.Unlock()

	s.publish(ev)
}

// SignalRateLimited publishes the distinct rate-limit signal. The counter
// is not incremented: the backend refused the request.
func (s *Store) SignalRateLimited() {
	s.mu.Lock()
	// Trust the 429 over possibly stale local state.
	if s.stats.Limit > 0 {
		s.stats.Used = s.stats.Limit
	}
	ev := Event{Stats: s.stats, RateLimited: true}
	s.mu.Unlock()

	s.publish(ev)
}

// Set installs an authoritative allowance, overwriting local increments.
// Used with a freshly fetched profile (login, refresh cycle).
func (s *Store) Set(used, limit int) {
	s.mu.Lock()
	s.stats = Stats{Used: used, Limit: limit}
	ev := Event{Stats: s.stats}
	s.mu.Unlock()

	s.publish(ev)
}

// Refresh performs one authoritative fetch. Failures leave the current
// view in place.
func (s *Store) Refresh(ctx context.Context) error {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}
	profile, err := s.source.Me(ctx, token)
	if err != nil {
		return err
	}
	s.Set(profile.RequestsUsed, profile.RequestsLimit)
	return nil
}

// Run refreshes immediately and then on every interval until the context
// is cancelled. Cancelling the context is the single teardown point.
func (s *Store) Run(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		log.Printf("allowance refresh failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				log.Printf("allowance refresh failed: %v", err)
			}
		}
	}
}
