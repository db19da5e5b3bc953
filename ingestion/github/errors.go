package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrInvalidLimit indicates a page size outside 1..100.
	ErrInvalidLimit = errors.New("github: limit must be between 1 and 100")
)

// RateLimitError reports a page refused because the quota ran out.
// Secondary marks GitHub's abuse limit, whose Reset is the Retry-After time.
type RateLimitError struct {
	Quota
	Secondary bool
}

func (e *RateLimitError) Error() string {
	if e.Secondary {
		return fmt.Sprintf("github: secondary rate limit hit, retry after %s", e.Reset.Format(time.RFC3339))
	}
	return fmt.Sprintf("github: %d/%d requests left, quota resets at %s", e.Remaining, e.Limit, e.Reset.Format(time.RFC3339))
}

// APIError is a non-rate-limit error status returned by the API.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound reports a missing or private repository.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether GitHub refused the page for quota reasons.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsUnauthorized reports a rejected token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsRetryable reports whether repeating the request may succeed.
// Server errors and transport failures are retryable; client errors,
// rate limiting and cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidLimit) || IsRateLimited(err) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return true
}
