// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/commentsense/sense-tui/internal/api"
)

// =============================================================================
// GUARD CONSTANTS
// =============================================================================

const (
	// RefreshThreshold is how close to expiry the access token may get
	// before a check proactively refreshes it.
	RefreshThreshold = 300 * time.Second

	// RecheckInterval is the period of the background liveness recheck
	// while the chat view is mounted.
	RecheckInterval = 60 * time.Second
)

// =============================================================================
// GUARD STATE
// =============================================================================

// State is the session liveness state.
type State int

const (
	// StateUnchecked means no liveness check has run yet.
	StateUnchecked State = iota
	// StateChecking means a liveness check is in flight.
	StateChecking
	// StateAuthorized means the last check succeeded.
	StateAuthorized
	// StateRefreshing means a token refresh is in flight.
	StateRefreshing
	// StateUnauthorized means there is no live session.
	StateUnauthorized
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateUnchecked:
		return "unchecked"
	case StateChecking:
		return "checking"
	case StateAuthorized:
		return "authorized"
	case StateRefreshing:
		return "refreshing"
	case StateUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Backend is the slice of the API client the guard depends on.
type Backend interface {
	Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error)
	Me(ctx context.Context, accessToken string) (*api.Profile, error)
}

// =============================================================================
// GUARD
// =============================================================================

// Guard decides whether a live session exists and keeps the access token
// fresh. All protected views consult it before loading and while mounted.
type Guard struct {
	mu      sync.Mutex
	state   State
	profile *api.Profile

	store   TokenStore
	backend Backend

	// refreshMu serializes refreshes. Concurrent checks queue here and
	// re-read the store once inside, so at most one network refresh runs
	// for any burst of callers.
	refreshMu sync.Mutex

	threshold time.Duration
	now       func() time.Time
}

// NewGuard creates a guard over a token store and backend.
func NewGuard(store TokenStore, backend Backend) *Guard {
	return &Guard{
		state:     StateUnchecked,
		store:     store,
		backend:   backend,
		threshold: RefreshThreshold,
		now:       time.Now,
	}
}

// WithThreshold overrides the refresh threshold.
func (g *Guard) WithThreshold(d time.Duration) *Guard {
	g.threshold = d
	return g
}

// WithClock overrides the time source.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// State returns the current liveness state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Profile returns the profile from the last successful identity check,
// or nil before one has completed.
func (g *Guard) Profile() *api.Profile {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.profile
}

// AccessToken returns the current access token for request use, refreshing
// first when it is close to expiry. Returns api.ErrNoSession when logged
// out.
func (g *Guard) AccessToken(ctx context.Context) (string, error) {
	access, err := g.ensureFresh(ctx)
	if err != nil {
		if ctxAborted(err) {
			// The caller gave up (quit, request timeout), not the
			// session. Keep the tokens; the next check arbitrates.
			g.mu.Lock()
			if g.state == StateRefreshing {
				g.state = StateAuthorized
			}
			g.mu.Unlock()
			return "", err
		}
		_, _ = g.failClosed(err)
		return "", err
	}
	// A refresh on this path leaves no pending identity check behind it;
	// the background recheck covers that.
	g.mu.Lock()
	if g.state == StateRefreshing {
		g.state = StateAuthorized
	}
	g.mu.Unlock()
	return access, nil
}

// setState transitions the state under lock and logs the edge.
func (g *Guard) setState(s State) {
	g.mu.Lock()
	prev := g.state
	g.state = s
	g.mu.Unlock()
	if prev != s {
		log.Printf("session state: %s -> %s", prev, s)
	}
}

// =============================================================================
// LIVENESS CHECK
// =============================================================================

// Check runs one full liveness pass: ensure the access token is fresh,
// then verify it against the identity endpoint. On success the state is
// authorized and the profile is cached. Any refresh or identity failure
// fails closed: both tokens are cleared and the state is unauthorized.
//
// The identity check always runs with the token the preceding refresh
// produced, never an older one.
func (g *Guard) Check(ctx context.Context) (State, error) {
	g.setState(StateChecking)

	access, err := g.ensureFresh(ctx)
	if err != nil {
		return g.settleFailure(err)
	}

	profile, err := g.backend.Me(ctx, access)
	if errors.Is(err, api.ErrUnauthorized) {
		// The token passed the expiry heuristic but the backend rejected
		// it (revoked, clock skew). One forced refresh, then retry.
		access, err = g.forceRefresh(ctx)
		if err != nil {
			return g.settleFailure(err)
		}
		profile, err = g.backend.Me(ctx, access)
	}
	if err != nil {
		return g.settleFailure(err)
	}

	g.mu.Lock()
	g.state = StateAuthorized
	g.profile = profile
	g.mu.Unlock()
	return StateAuthorized, nil
}

// ensureFresh returns an access token that is not within the refresh
// threshold, refreshing if needed. Single-flight: concurrent callers
// serialize on refreshMu and the ones that waited find the fresh token
// already stored.
func (g *Guard) ensureFresh(ctx context.Context) (string, error) {
	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()

	access, refresh, err := g.store.Tokens()
	if err != nil {
		return "", api.ErrNoSession
	}

	if !ExpiringSoon(access, g.threshold, g.now()) {
		return access, nil
	}
	return g.refreshLocked(ctx, refresh)
}

// forceRefresh refreshes unconditionally, for the post-401 retry path.
func (g *Guard) forceRefresh(ctx context.Context) (string, error) {
	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()

	_, refresh, err := g.store.Tokens()
	if err != nil {
		return "", api.ErrNoSession
	}
	return g.refreshLocked(ctx, refresh)
}

// refreshLocked exchanges the refresh token for a new pair and persists
// both atomically. Caller holds refreshMu.
func (g *Guard) refreshLocked(ctx context.Context, refreshToken string) (string, error) {
	g.setState(StateRefreshing)

	pair, err := g.backend.Refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if err := g.store.SetTokens(pair.AccessToken, pair.RefreshToken); err != nil {
		return "", err
	}
	log.Printf("session refreshed (access %s)", api.Fingerprint(pair.AccessToken))
	return pair.AccessToken, nil
}

// ctxAborted reports whether err is a caller-side context abort rather
// than a verdict on the session.
func ctxAborted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// settleFailure resolves a failed check: caller-side aborts keep the
// tokens and leave the verdict to the next check, everything else fails
// closed.
func (g *Guard) settleFailure(cause error) (State, error) {
	if ctxAborted(cause) {
		g.setState(StateUnchecked)
		return StateUnchecked, cause
	}
	return g.failClosed(cause)
}

// failClosed clears both tokens and drops to unauthorized.
func (g *Guard) failClosed(cause error) (State, error) {
	if err := g.store.Clear(); err != nil {
		log.Printf("failed to clear tokens: %v", err)
	}
	g.mu.Lock()
	g.state = StateUnauthorized
	g.profile = nil
	g.mu.Unlock()
	log.Printf("session failed closed: %v", cause)
	return StateUnauthorized, cause
}

// Logout clears the session locally. Backend notification is the caller's
// concern and best-effort.
func (g *Guard) Logout() {
	_, _ = g.failClosed(errors.New("logout requested"))
}

// Adopt installs a freshly issued pair (login or signup) and marks the
// session authorized without a round-trip.
func (g *Guard) Adopt(pair *api.TokenPair, profile *api.Profile) error {
	if err := g.store.SetTokens(pair.AccessToken, pair.RefreshToken); err != nil {
		return err
	}
	g.mu.Lock()
	g.state = StateAuthorized
	g.profile = profile
	g.mu.Unlock()
	return nil
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// CheckedMsg reports the outcome of a liveness check.
type CheckedMsg struct {
	State   State
	Profile *api.Profile
	Err     error
}

// RecheckTickMsg fires the periodic background recheck.
type RecheckTickMsg struct {
	Time time.Time
}

// CheckCmd runs a liveness check as a command.
func CheckCmd(ctx context.Context, g *Guard) tea.Cmd {
	return func() tea.Msg {
		state, err := g.Check(ctx)
		return CheckedMsg{State: state, Profile: g.Profile(), Err: err}
	}
}

// RecheckCmd schedules the next background recheck tick.
func RecheckCmd() tea.Cmd {
	return tea.Tick(RecheckInterval, func(t time.Time) tea.Msg {
		return RecheckTickMsg{Time: t}
	})
}
