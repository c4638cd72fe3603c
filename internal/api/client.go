// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONSTANTS
// =============================================================================

const (
	// DefaultLocalURL is the development backend.
	DefaultLocalURL = "http://localhost:8000"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the retry budget for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// retryMaxDelay caps the exponential backoff.
	retryMaxDelay = 10 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

var (
	// PERFORMANCE: Shared HTTP client with connection pooling for all requests.
	// SECURITY: TLS 1.2 minimum.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming chat requests.
	// No timeout here: stream lifetime is controlled via context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// Error variables for common backend failures.
var (
	// ErrUnauthorized indicates an invalid or expired credential (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the request allowance is exhausted (HTTP 429).
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound indicates the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken indicates signup with an already-registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNoSession indicates a protected call was made without a token.
	ErrNoSession = errors.New("no session token")
)

// APIError represents a structured error response from the backend.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// errorBody is the FastAPI-style error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for the Comment Sense backend API.
//
// The zero value is not usable; construct with NewClient. A Client carries
// no credentials of its own: every protected call takes the bearer token
// explicitly so that token ownership stays with the auth layer.
type Client struct {
	baseURL    string
	maxRetries int
	userAgent  string

	// limiter throttles outbound requests so background pollers cannot
	// stampede the backend.
	limiter *rate.Limiter
}

// NewClient creates a new backend client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		maxRetries: DefaultMaxRetries,
		userAgent:  "sense-tui/0.1.0",
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
	}
}

// WithMaxRetries sets the retry budget for transient errors.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// WithRateLimit overrides the outbound request throttle.
func (c *Client) WithRateLimit(perSecond float64, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// SECURE LOGGING
// =============================================================================

// Fingerprint returns a short SHA-256 fingerprint of a credential for logging.
// SECURITY: Never log token fragments; use the fingerprint instead.
func Fingerprint(token string) string {
	if token == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:4])
}

// logRequest logs an API request without exposing sensitive data.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API request: %s %s", req.Method, req.URL.Path)
	// Headers and bodies are never logged: they may carry credentials.
}

// logResponse logs an API response with duration.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	path := ""
	if resp.Request != nil && resp.Request.URL != nil {
		path = resp.Request.URL.Path
	}
	log.Printf("API response: %d %s (%v)", resp.StatusCode, path, duration)
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// setCommonHeaders sets headers shared by every request.
func (c *Client) setCommonHeaders(req *http.Request, bearer string) {
	req.Header.Set("User-Agent", c.userAgent)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
}

// do performs a single request through the shared pooled client, applying
// the politeness throttle and secure logging.
func (c *Client) do(ctx context.Context, httpClient *http.Client, httpReq *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.logRequest(httpReq)
	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	c.logResponse(resp, time.Since(start))
	return resp, nil
}

// readBody reads a response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readBody(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// decodeInto reads and unmarshals a JSON response body.
func decodeInto(resp *http.Response, out any) error {
	body, err := readBody(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// handleErrorResponse converts HTTP error responses to sentinel errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var eb errorBody
	detail := ""
	if err := json.Unmarshal(body, &eb); err == nil {
		detail = eb.Detail
	}

	wrap := func(sentinel error) error {
		if detail != "" {
			return fmt.Errorf("%w: %s", sentinel, detail)
		}
		return sentinel
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return wrap(ErrUnauthorized)
	case http.StatusTooManyRequests:
		return wrap(ErrRateLimited)
	case http.StatusNotFound:
		return wrap(ErrNotFound)
	case http.StatusBadRequest:
		if strings.Contains(strings.ToLower(detail), "already registered") {
			return wrap(ErrEmailTaken)
		}
	}

	return &APIError{Status: statusCode, Detail: detail}
}

// isRetryable determines if an error should trigger a retry.
// 5xx and transport failures are retryable; auth and rate-limit errors are
// not, because retrying cannot fix them and burns allowance.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmailTaken) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500 && apiErr.Status < 600
	}

	// Remaining cases are transport-level failures.
	return true
}

// calculateBackoff returns the delay before the next retry attempt.
func calculateBackoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<uint(attempt))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

// doJSON performs a request with retry, expecting a JSON response into out.
// The request body factory is re-invoked per attempt so bodies are
// re-readable across retries.
func (c *Client) doJSON(ctx context.Context, makeReq func() (*http.Request, error), out any) error {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(attempt)):
			}
		}

		httpReq, err := makeReq()
		if err != nil {
			return err
		}

		err = c.attemptJSON(ctx, httpReq, out)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// attemptJSON performs one request/decode cycle.
func (c *Client) attemptJSON(ctx context.Context, httpReq *http.Request, out any) error {
	resp, err := c.do(ctx, sharedHTTPClient, httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp)
		return handleErrorResponse(resp.StatusCode, body)
	}

	if out == nil {
		// Caller does not care about the body; drain for connection reuse.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return nil
	}
	return decodeInto(resp, out)
}
