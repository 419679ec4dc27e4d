// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
client.go - Kitsu (Zou) REST API Client

This file provides the HTTP communication layer for the Kitsu API.

Client Features:
  - Form-based login (POST /api/auth/login) with bearer token sessions
  - Automatic re-login when the token expires (HTTP 401 triggers one retry)
  - Circuit breaker protection against a failing Kitsu server
  - Client-side request rate limiting
  - Context support for cancellation and timeouts

Resilience Mechanisms:
  - Circuit Breaker: opens after 60% failure rate with minimum 10 requests,
    2 minute recovery timeout
  - Rate Limiter: token bucket, configurable requests per second
  - Context: all methods accept context for cancellation

Related Files:
  - fetch.go: typed fetchers for projects, task types and statuses
  - errors.go: login and API error types
*/

//nolint:staticcheck // File documentation, not package doc
package kitsu

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/studiopipe/kitsubridge/internal/config"
	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/metrics"
)

// maxErrorBodySize limits how much of an error response body is read
// for diagnostics.
const maxErrorBodySize = 64 * 1024 // 64KB

const breakerName = "kitsu-api"

// Client handles communication with the Kitsu HTTP API.
//
// Thread Safety: safe for concurrent use. The session token is guarded
// by a mutex; each request creates its own HTTP request.
type Client struct {
	baseURL  string
	email    string
	password string

	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[[]byte]

	mu    sync.Mutex
	token string
}

// NewClient creates a Kitsu API client from configuration.
func NewClient(cfg *config.KitsuConfig) *Client {
	metrics.SetCircuitBreakerState(breakerName, 0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("kitsu circuit breaker state change")
			metrics.SetCircuitBreakerState(name, stateToInt(to))
		},
	})

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 10
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		email:    cfg.Email,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
		cb:      cb,
	}
}

func stateToInt(s gobreaker.State) int {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// Login authenticates against the Kitsu server and stores the session
// token. It is called automatically by Request when no token is held.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{}
	form.Set("email", c.email)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return &LoginError{Reason: "server error", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordKitsuRequest("auth/login", statusLabel(resp, err), time.Since(start))
	if err != nil {
		return &LoginError{Reason: "server error", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return &LoginError{Reason: "server error", Err: err}
	}

	var lr loginResponse
	if err := unmarshalJSON(body, &lr); err != nil || lr.AccessToken == "" {
		return &LoginError{Reason: "invalid credentials"}
	}

	c.mu.Lock()
	c.token = lr.AccessToken
	c.mu.Unlock()

	logging.Debug().Str("server", c.baseURL).Msg("kitsu login successful")
	return nil
}

// Logout invalidates the current session token, if any.
func (c *Client) Logout(ctx context.Context) {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.mu.Unlock()
	if token == "" {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/auth/logout", http.NoBody)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Request performs an authenticated request against /api/{endpoint},
// logging in first when no session is held and retrying once after a
// re-login when the server answers 401. The response body is returned
// for 2xx statuses; other statuses produce an *APIError.
func (c *Client) Request(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if c.currentToken() == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	result, err := c.cb.Execute(func() ([]byte, error) {
		data, status, err := c.do(ctx, method, endpoint, body)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			// Session expired. Re-login and retry once.
			metrics.KitsuRelogins.Inc()
			logging.Info().Str("endpoint", endpoint).Msg("kitsu session expired, re-authenticating")
			if err := c.Login(ctx); err != nil {
				return nil, err
			}
			data, status, err = c.do(ctx, method, endpoint, body)
			if err != nil {
				return nil, err
			}
		}
		if status < 200 || status > 299 {
			return nil, &APIError{
				StatusCode: status,
				Endpoint:   endpoint,
				Body:       truncate(string(data), 512),
			}
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get performs an authenticated GET against /api/{endpoint}.
func (c *Client) Get(ctx context.Context, endpoint string) ([]byte, error) {
	return c.Request(ctx, http.MethodGet, endpoint, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, int, error) {
	var reader io.Reader = http.NoBody
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method,
		c.baseURL+"/api/"+strings.TrimLeft(endpoint, "/"), reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.currentToken())
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordKitsuRequest(endpointLabel(endpoint), statusLabel(resp, err), time.Since(start))
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024*1024))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// endpointLabel strips identifiers from an endpoint path to keep metric
// cardinality bounded: "data/projects/abc-123/task-types" becomes
// "data/projects/{id}/task-types".
func endpointLabel(endpoint string) string {
	parts := strings.Split(strings.TrimLeft(endpoint, "/"), "/")
	for i, p := range parts {
		if len(p) >= 32 || strings.Count(p, "-") >= 4 {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func statusLabel(resp *http.Response, err error) string {
	if err != nil || resp == nil {
		return "error"
	}
	return strconv.Itoa(resp.StatusCode)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
