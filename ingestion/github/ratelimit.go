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

package github

import (
	"context"
	"log/slog"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/time/rate"
)

const (
	// AuthenticatedRateLimit is the hourly quota with a token.
	AuthenticatedRateLimit = 5000

	// UnauthenticatedRateLimit is the hourly quota without a token.
	UnauthenticatedRateLimit = 60

	// ProactiveRate is the proactive throttle rate in requests per second.
	ProactiveRate = 1.2
)

// Quota is the request allowance GitHub last reported to the fetcher.
type Quota struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Reserve is the number of requests held back until the window resets.
func (q Quota) Reserve() int {
	return q.Limit / 50
}

// exhausted reports whether the remaining requests have fallen under the
// reserve while the reset is still ahead.
func (q Quota) exhausted(now time.Time) bool {
	return q.Remaining < q.Reserve() && now.Before(q.Reset)
}

// RateLimiter paces page fetches and holds them back once the reported
// quota runs low.
type RateLimiter struct {
	mu     sync.Mutex
	quota  Quota
	bucket *rate.Limiter
	logger *slog.Logger
}

// NewRateLimiter creates a rate limiter that assumes the full hourly limit
// until GitHub reports otherwise.
func NewRateLimiter(limit int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		quota:  Quota{Limit: limit, Remaining: limit},
		bucket: rate.NewLimiter(rate.Limit(ProactiveRate), 1),
		logger: logger,
	}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	q := r.Quota()
	if !q.exhausted(time.Now()) {
		return nil
	}

	wait := time.Until(q.Reset)
	r.logger.Warn("github quota low, waiting for reset",
		"remaining", q.Remaining, "limit", q.Limit, "wait", wait.Round(time.Second))
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Observe records the quota reported alongside a response. A rate without
// a limit means the response carried no rate headers and is ignored.
func (r *RateLimiter) Observe(reported gh.Rate) {
	if reported.Limit <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quota = Quota{
		Limit:     reported.Limit,
		Remaining: reported.Remaining,
		Reset:     reported.Reset.Time,
	}
}

// Quota returns the last reported quota.
func (r *RateLimiter) Quota() Quota {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quota
}
