// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// =============================================================================
// AUTH TYPES
// =============================================================================

// TokenPair is the access/refresh token pair returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Profile is the authenticated user profile returned by the "me" endpoint,
// including the current request allowance.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	RequestsUsed  int       `json:"requests_used"`
	RequestsLimit int       `json:"requests_limit"`
}

// SignupRequest is the body for account creation.
type SignupRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	EnableLogging bool   `json:"enable_logging,omitempty"`
}

// chatIDResponse is the body returned by set-chat-id.
type chatIDResponse struct {
	ActiveChatID string `json:"active_chat_id"`
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Signup creates a new account. Returns ErrEmailTaken if the email is
// already registered.
func (c *Client) Signup(ctx context.Context, reqBody SignupRequest) (*Profile, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var profile Profile
	err = c.doJSON(ctx, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/auth/signup", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		c.setCommonHeaders(httpReq, "")
		return httpReq, nil
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Login exchanges credentials for a token pair. The backend expects an
// OAuth2 password form, so the body is form-encoded with the email sent as
// the username field.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	encoded := form.Encode()

	var pair TokenPair
	err := c.doJSON(ctx, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/auth/login", strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		c.setCommonHeaders(httpReq, "")
		return httpReq, nil
	}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Refresh mints a new token pair using the refresh token. The refresh token
// rides in the Authorization header; no body is sent.
//
// Refresh is never retried: a 401 here means the session is dead, and
// callers must fail closed to logged-out.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrNoSession
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/refresh", nil)
	if err != nil {
		return nil, err
	}
	c.setCommonHeaders(httpReq, refreshToken)

	var pair TokenPair
	if err := c.attemptJSON(ctx, httpReq, &pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, fmt.Errorf("refresh returned incomplete token pair")
	}
	return &pair, nil
}

// Me fetches the authenticated profile. A 401 maps to ErrUnauthorized,
// which callers treat as a dead session.
func (c *Client) Me(ctx context.Context, accessToken string) (*Profile, error) {
	if accessToken == "" {
		return nil, ErrNoSession
	}

	var profile Profile
	err := c.doJSON(ctx, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/api/auth/me", nil)
		if err != nil {
			return nil, err
		}
		c.setCommonHeaders(httpReq, accessToken)
		return httpReq, nil
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetChatID asks the backend for a fresh chat thread identifier. Called
// once when the chat view mounts; the returned ID is sent back as the
// X-Chat-ID header on every chat request.
func (c *Client) SetChatID(ctx context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		return "", ErrNoSession
	}

	var resp chatIDResponse
	err := c.doJSON(ctx, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/auth/set-chat-id", nil)
		if err != nil {
			return nil, err
		}
		c.setCommonHeaders(httpReq, accessToken)
		return httpReq, nil
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ActiveChatID, nil
}

// Logout notifies the backend. The token pair is stateless server-side, so
// failures here are advisory only; local state is cleared regardless.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.doJSON(ctx, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/api/auth/logout", nil)
		if err != nil {
			return nil, err
		}
		c.setCommonHeaders(httpReq, accessToken)
		return httpReq, nil
	}, nil)
}
