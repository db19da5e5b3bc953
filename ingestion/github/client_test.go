package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pullsPath = "/repos/llvm/llvm-project/pulls"

const pullsFixture = `[
  {
    "number": 3,
    "title": "[LoopVectorize] Fix cost model",
    "body": "Short body",
    "user": {"login": "alice"},
    "merged_at": "2024-05-01T12:00:00Z",
    "diff_url": "https://github.com/llvm/llvm-project/pull/3.diff"
  },
  {
    "number": 2,
    "title": "Closed without merge",
    "body": "never landed",
    "user": {"login": "bob"},
    "merged_at": null,
    "diff_url": "https://github.com/llvm/llvm-project/pull/2.diff"
  },
  {
    "number": 1,
    "title": "Fix memory leak",
    "body": null,
    "user": {"login": "carol"},
    "merged_at": "2024-04-30T23:15:00-02:00",
    "diff_url": "https://github.com/llvm/llvm-project/pull/1.diff"
  }
]`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithBaseURL(server.URL), WithHTTPClient(server.Client())}, opts...)
	client, err := NewClient(context.Background(), opts...)
	require.NoError(t, err)
	return client
}

func TestFetchMergedPullRequests(t *testing.T) {
	var gotQuery map[string]string
	var gotUserAgent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pullsPath, r.URL.Path)
		gotQuery = map[string]string{
			"state":     r.URL.Query().Get("state"),
			"sort":      r.URL.Query().Get("sort"),
			"direction": r.URL.Query().Get("direction"),
			"per_page":  r.URL.Query().Get("per_page"),
		}
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "59")
		fmt.Fprint(w, pullsFixture)
	})

	docs, err := client.FetchMergedPullRequests(context.Background(), "llvm", "llvm-project", 3)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"state":     "closed",
		"sort":      "updated",
		"direction": "desc",
		"per_page":  "3",
	}, gotQuery)
	assert.Equal(t, UserAgent, gotUserAgent)

	require.Len(t, docs, 2, "unmerged pull requests are skipped")
	assert.Equal(t, "alice", docs[0].Author)
	assert.Equal(t, "[LoopVectorize] Fix cost model", docs[0].SkillSignal)
	assert.Equal(t, "Short body", docs[0].Context)
	assert.Equal(t, "2024-05-01T12:00:00Z", docs[0].MergedAt)
	assert.Equal(t, "https://github.com/llvm/llvm-project/pull/3.diff", docs[0].ProofURL)
	assert.NotZero(t, docs[0].Id)

	assert.Equal(t, "carol", docs[1].Author)
	assert.Equal(t, "", docs[1].Context, "null body becomes empty context")
	assert.Equal(t, "2024-05-01T01:15:00Z", docs[1].MergedAt, "merge time is normalized to UTC")

	quota := client.RateLimiter().Quota()
	assert.Equal(t, 59, quota.Remaining)
	assert.Equal(t, 60, quota.Limit)
}

func TestFetchMergedPullRequests_Token(t *testing.T) {
	var auth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, "[]")
	}, WithToken("s3cret"))

	assert.True(t, client.Authenticated())
	docs, err := client.FetchMergedPullRequests(context.Background(), "llvm", "llvm-project", 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, "Bearer s3cret", auth)
	assert.Equal(t, AuthenticatedRateLimit, client.RateLimiter().Quota().Limit)
}

func TestFetchMergedPullRequests_InvalidLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	for _, limit := range []int{0, -1, 101} {
		_, err := client.FetchMergedPullRequests(context.Background(), "llvm", "llvm-project", limit)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	}
}

func TestFetchMergedPullRequests_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		})
		_, err := client.FetchMergedPullRequests(context.Background(), "llvm", "llvm-project", 5)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.False(t, IsRetryable(err))

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "Not Found", apiErr.Message)
		assert.Contains(t, apiErr.URL, pullsPath)
	})

	t.Run("unauthorized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message": "Bad credentials"}`)
		}, WithToken("bad"))
		_, err := client.FetchMergedPullRequests(context.Background(), "llvm", "llvm-project", 5)
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("server error is retryable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"message": "upstream"}`)
		})
		_, err := client.FetchMergedPullRequests(context.Background(), "llvm", "llvm-project", 5)
		assert.True(t, IsRetryable(err))
	})

	t.Run("rate limited", func(t *testing.T) {
		reset := time.Now().Add(-time.Minute).Unix()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
		})
		_, err := client.FetchMergedPullRequests(context.Background(), "llvm", "llvm-project", 5)
		require.Error(t, err)
		assert.True(t, IsRateLimited(err))
		assert.False(t, IsRetryable(err))

		var rlErr *RateLimitError
		require.True(t, errors.As(err, &rlErr))
		assert.Equal(t, 60, rlErr.Limit)
		assert.Equal(t, 0, rlErr.Remaining)
		assert.Equal(t, reset, rlErr.Reset.Unix())
		assert.False(t, rlErr.Secondary)
		assert.Equal(t, 0, client.RateLimiter().Quota().Remaining, "refusal updates the quota")
		assert.Contains(t, err.Error(), "0/60 requests left")
	})

	t.Run("secondary rate limit", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "120")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "slow down", "documentation_url": "https://docs.github.com/rest/overview/secondary-rate-limits"}`)
		})
		before := time.Now()
		_, err := client.FetchMergedPullRequests(context.Background(), "llvm", "llvm-project", 5)
		require.Error(t, err)
		assert.True(t, IsRateLimited(err))
		assert.False(t, IsRetryable(err))

		var rlErr *RateLimitError
		require.True(t, errors.As(err, &rlErr))
		assert.True(t, rlErr.Secondary)
		assert.WithinDuration(t, before.Add(2*time.Minute), rlErr.Reset, 5*time.Second)
		assert.Contains(t, err.Error(), "secondary rate limit")
	})
}

func TestFetchMergedPullRequests_Cancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchMergedPullRequests(ctx, "llvm", "llvm-project", 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRetryable(err))
}

func TestToDocument(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "abcde"
	}
	merged := gh.Timestamp{Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	pr := &gh.PullRequest{
		Title:    gh.Ptr("Title"),
		Body:     gh.Ptr(long),
		User:     &gh.User{Login: gh.Ptr("dave")},
		MergedAt: &merged,
		DiffURL:  gh.Ptr("https://example.com/1.diff"),
	}

	doc := ToDocument(pr)
	assert.Equal(t, long[:100]+"...", doc.Context)
	assert.Equal(t, "2024-01-02T03:04:05Z", doc.MergedAt)
	assert.Equal(t, "dave", doc.Author)
	assert.True(t, IsMerged(pr))
	assert.False(t, IsMerged(&gh.PullRequest{}))
	assert.False(t, IsMerged(nil))
}
