// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// TOKEN STORE
// =============================================================================

// ErrNoTokens indicates no persisted session exists.
var ErrNoTokens = errors.New("no stored tokens")

// TokenStore persists the session token pair. Implementations must write
// and clear both tokens atomically: a read can never observe one token
// without the other.
type TokenStore interface {
	// Tokens returns the current pair, or an error (such as ErrNoTokens)
	// when no session is stored.
	Tokens() (access, refresh string, err error)

	// SetTokens replaces the pair as a unit.
	SetTokens(access, refresh string) error

	// Clear removes both tokens as a unit.
	Clear() error
}

// MemoryStore is a TokenStore for tests and for running without a state
// directory. The pair does not survive process exit.
type MemoryStore struct {
	mu      sync.Mutex
	access  string
	refresh string
	present bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Tokens implements TokenStore.
func (s *MemoryStore) Tokens() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present {
		return "", "", ErrNoTokens
	}
	return s.access, s.refresh, nil
}

// SetTokens implements TokenStore.
func (s *MemoryStore) SetTokens(access, refresh string) error {
	if access == "" || refresh == "" {
		return errors.New("refusing to store partial token pair")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	s.present = true
	return nil
}

// Clear implements TokenStore.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	s.present = false
	return nil
}

// =============================================================================
// JWT EXPIRY INSPECTION
// =============================================================================

// jwtClaims is the subset of the payload the client cares about.
type jwtClaims struct {
	Exp float64 `json:"exp"`
}

// TokenExpiry decodes the exp claim from a JWT without verifying the
// signature. The client only uses this to schedule refreshes ahead of
// expiry; validity is always the backend's call.
func TokenExpiry(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, errors.New("not a JWT")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, err
	}

	var claims jwtClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.Exp == 0 {
		return time.Time{}, errors.New("missing exp claim")
	}
	return time.Unix(int64(claims.Exp), 0), nil
}

// ExpiringSoon reports whether the token expires within threshold of now.
// An undecodable token reports false: the identity check will reject it if
// it is actually bad, and refreshing on garbage would loop forever.
func ExpiringSoon(token string, threshold time.Duration, now time.Time) bool {
	exp, err := TokenExpiry(token)
	if err != nil {
		return false
	}
	return exp.Sub(now) < threshold
}
