package gh

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v74/github"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/github-tools/github-org-stats/cache"
	"github.com/github-tools/github-org-stats/ratelimit"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	c, err := New(github.NewClient(nil), log)
	require.NoError(t, err)
	c.Limiter = ratelimit.NewWithRate(10000, 10000)
	c.InitialBackoff = time.Millisecond
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func errWithStatus(status int) error {
	return &github.ErrorResponse{
		Response: &http.Response{StatusCode: status},
	}
}

func TestCall(t *testing.T) {
	ctx := context.Background()

	t.Run("returns result on success", func(t *testing.T) {
		c := newTestClient(t)
		got, ok := Call(ctx, c, "op", "a/b", func(ctx context.Context) (int, *github.Response, error) {
			return 42, nil, nil
		})
		assert.True(t, ok)
		assert.Equal(t, 42, got)
	})

	t.Run("404 is absent without retry", func(t *testing.T) {
		c := newTestClient(t)
		calls := 0
		_, ok := Call(ctx, c, "op", "a/b", func(ctx context.Context) (string, *github.Response, error) {
			calls++
			return "", nil, errWithStatus(http.StatusNotFound)
		})
		assert.False(t, ok)
		assert.Equal(t, 1, calls)
	})

	t.Run("generic error retries up to the cap", func(t *testing.T) {
		c := newTestClient(t)
		c.MaxRetries = 1
		calls := 0
		_, ok := Call(ctx, c, "op", "a/b", func(ctx context.Context) (string, *github.Response, error) {
			calls++
			return "", nil, errors.New("boom")
		})
		assert.False(t, ok)
		assert.Equal(t, 2, calls, "one initial call plus one retry")
	})

	t.Run("generic error succeeds after a retry", func(t *testing.T) {
		c := newTestClient(t)
		calls := 0
		got, ok := Call(ctx, c, "op", "a/b", func(ctx context.Context) (string, *github.Response, error) {
			calls++
			if calls < 3 {
				return "", nil, errWithStatus(http.StatusBadGateway)
			}
			return "done", nil, nil
		})
		assert.True(t, ok)
		assert.Equal(t, "done", got)
		assert.Equal(t, 3, calls)
	})

	t.Run("backoff doubles between generic retries", func(t *testing.T) {
		c := newTestClient(t)
		c.InitialBackoff = 10 * time.Millisecond
		var waits []time.Duration
		c.sleep = func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}
		_, ok := Call(ctx, c, "op", "a/b", func(ctx context.Context) (string, *github.Response, error) {
			return "", nil, errors.New("boom")
		})
		assert.False(t, ok)
		require.Len(t, waits, 3)
		assert.Equal(t, 10*time.Millisecond, waits[0])
		assert.Equal(t, 20*time.Millisecond, waits[1])
		assert.Equal(t, 40*time.Millisecond, waits[2])
	})

	t.Run("403 marks the forbidden cache", func(t *testing.T) {
		c := newTestClient(t)
		calls := 0
		_, ok := Call(ctx, c, "GetBranchProtection", "a/b@main", func(ctx context.Context) (string, *github.Response, error) {
			calls++
			return "", nil, errWithStatus(http.StatusForbidden)
		})
		assert.False(t, ok)
		assert.Equal(t, 1, calls)
		assert.True(t, c.Forbidden.Contains(cache.Key("GetBranchProtection", "a/b@main")))

		// The identical call never reaches the API again.
		_, ok = Call(ctx, c, "GetBranchProtection", "a/b@main", func(ctx context.Context) (string, *github.Response, error) {
			calls++
			return "", nil, nil
		})
		assert.False(t, ok)
		assert.Equal(t, 1, calls)
	})

	t.Run("forbidden cache is scoped to operation and args", func(t *testing.T) {
		c := newTestClient(t)
		_, _ = Call(ctx, c, "GetBranchProtection", "a/b@main", func(ctx context.Context) (string, *github.Response, error) {
			return "", nil, errWithStatus(http.StatusForbidden)
		})

		got, ok := Call(ctx, c, "GetBranchProtection", "a/other@main", func(ctx context.Context) (string, *github.Response, error) {
			return "ok", nil, nil
		})
		assert.True(t, ok)
		assert.Equal(t, "ok", got)
	})

	t.Run("rate limit waits the server hint and retries", func(t *testing.T) {
		c := newTestClient(t)
		var waits []time.Duration
		c.sleep = func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}
		calls := 0
		got, ok := Call(ctx, c, "op", "a/b", func(ctx context.Context) (string, *github.Response, error) {
			calls++
			if calls == 1 {
				return "", nil, &github.RateLimitError{
					Rate: github.Rate{Reset: github.Timestamp{Time: time.Now().Add(30 * time.Second)}},
				}
			}
			return "done", nil, nil
		})
		assert.True(t, ok)
		assert.Equal(t, "done", got)
		require.Len(t, waits, 1)
		assert.InDelta(t, 30*time.Second, waits[0], float64(time.Second))
	})

	t.Run("rate limit without hint waits the default", func(t *testing.T) {
		c := newTestClient(t)
		var waits []time.Duration
		c.sleep = func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}
		calls := 0
		_, ok := Call(ctx, c, "op", "a/b", func(ctx context.Context) (string, *github.Response, error) {
			calls++
			if calls == 1 {
				return "", nil, &github.RateLimitError{}
			}
			return "done", nil, nil
		})
		assert.True(t, ok)
		require.Len(t, waits, 1)
		assert.Equal(t, DefaultRateLimitWait, waits[0])
	})

	t.Run("cancelled context stops the loop", func(t *testing.T) {
		c := newTestClient(t)
		cancelled, cancel := context.WithCancel(ctx)
		calls := 0
		_, ok := Call(cancelled, c, "op", "a/b", func(ctx context.Context) (string, *github.Response, error) {
			calls++
			cancel()
			return "", nil, errors.New("boom")
		})
		assert.False(t, ok)
		assert.Equal(t, 1, calls)
	})
}

func TestPaginate(t *testing.T) {
	ctx := context.Background()

	t.Run("follows next page cursors", func(t *testing.T) {
		c := newTestClient(t)
		pages := map[int][]int{
			0: {1, 2},
			2: {3, 4},
			3: {5},
		}
		next := map[int]int{0: 2, 2: 3, 3: 0}

		got, ok := Paginate(ctx, c, "op", "a/b", func(ctx context.Context, page int) ([]int, *github.Response, error) {
			return pages[page], &github.Response{NextPage: next[page]}, nil
		})
		assert.True(t, ok)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
	})

	t.Run("failed page keeps earlier results", func(t *testing.T) {
		c := newTestClient(t)
		c.MaxRetries = 0
		got, ok := Paginate(ctx, c, "op", "a/b", func(ctx context.Context, page int) ([]int, *github.Response, error) {
			if page == 0 {
				return []int{1, 2}, &github.Response{NextPage: 2}, nil
			}
			return nil, nil, errors.New("boom")
		})
		assert.True(t, ok, "partial results still count")
		assert.Equal(t, []int{1, 2}, got)
	})

	t.Run("failed first page reports failure", func(t *testing.T) {
		c := newTestClient(t)
		c.MaxRetries = 0
		got, ok := Paginate(ctx, c, "op", "a/b", func(ctx context.Context, page int) ([]int, *github.Response, error) {
			return nil, nil, errors.New("boom")
		})
		assert.False(t, ok)
		assert.Empty(t, got)
	})
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsNotFound(errWithStatus(http.StatusNotFound)))
	assert.False(t, IsNotFound(errWithStatus(http.StatusForbidden)))
	assert.False(t, IsNotFound(errors.New("boom")))

	assert.True(t, IsForbidden(errWithStatus(http.StatusForbidden)))
	assert.False(t, IsForbidden(errWithStatus(http.StatusNotFound)))

	assert.True(t, IsServerError(errWithStatus(http.StatusInternalServerError)))
	assert.True(t, IsServerError(errWithStatus(http.StatusBadGateway)))
	assert.False(t, IsServerError(errWithStatus(http.StatusNotFound)))

	retryAfter := 7 * time.Second
	wait, ok := RateLimitWait(&github.AbuseRateLimitError{RetryAfter: &retryAfter})
	assert.True(t, ok)
	assert.Equal(t, retryAfter, wait)

	_, ok = RateLimitWait(errors.New("boom"))
	assert.False(t, ok)
}
