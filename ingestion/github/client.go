// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package github fetches merged pull requests from the GitHub REST API and
// converts them into documents.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// UserAgent identifies the fetcher; GitHub rejects requests without one.
	UserAgent = "signalsearch-fetcher"
)

// Client wraps the go-github client with rate limiting and error mapping.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
	logger      *slog.Logger

	token      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client) error

// WithToken authenticates requests with a static token.
// An empty token leaves the client unauthenticated.
func WithToken(token string) Option {
	return func(c *Client) error {
		c.token = strings.TrimSpace(token)
		return nil
	}
}

// WithBaseURL points the client at another API root, such as a GitHub
// Enterprise instance or a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		if _, err := url.Parse(baseURL); err != nil {
			return fmt.Errorf("github: invalid base URL: %w", err)
		}
		c.baseURL = baseURL
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = client
		return nil
	}
}

// WithRateLimiter replaces the default rate limiter.
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(c *Client) error {
		c.rateLimiter = limiter
		return nil
	}
}

// WithLogger sets the logger for the client.
// If not provided, slog.Default() will be used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a GitHub API client.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
		timeout := httpClient.Timeout
		httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, httpClient), ts)
		httpClient.Timeout = timeout
	}

	c.gh = gh.NewClient(httpClient)
	c.gh.UserAgent = UserAgent
	if c.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(c.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: invalid base URL: %w", err)
		}
		c.gh.BaseURL = u
	}

	c.logger = c.logger.With("component", "github")
	if c.rateLimiter == nil {
		limit := UnauthenticatedRateLimit
		if c.token != "" {
			limit = AuthenticatedRateLimit
		}
		c.rateLimiter = NewRateLimiter(limit, c.logger)
	}

	return c, nil
}

// Authenticated reports whether requests carry a token.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// ListClosedPullRequests returns one page of closed pull requests, most
// recently updated first.
func (c *Client) ListClosedPullRequests(ctx context.Context, owner, repo string, limit int) ([]*gh.PullRequest, error) {
	if limit < 1 || limit > 100 {
		return nil, ErrInvalidLimit
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: limit},
	}

	c.logger.Debug("listing pull requests", "owner", owner, "repo", repo, "limit", limit)
	prs, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
	if resp != nil {
		c.rateLimiter.Observe(resp.Rate)
	}
	if err != nil {
		return nil, c.wrapError(err, "list pull requests")
	}
	return prs, nil
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.rateLimiter.Observe(rateLimitErr.Rate)
		return &RateLimitError{Quota: Quota{
			Limit:     rateLimitErr.Rate.Limit,
			Remaining: rateLimitErr.Rate.Remaining,
			Reset:     rateLimitErr.Rate.Reset.Time,
		}}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		q := c.rateLimiter.Quota()
		q.Reset = time.Now()
		if abuseErr.RetryAfter != nil {
			q.Reset = q.Reset.Add(*abuseErr.RetryAfter)
		}
		return &RateLimitError{Quota: q, Secondary: true}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}
