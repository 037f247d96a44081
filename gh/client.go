// Package gh wraps the go-github client with the run-scoped pieces
// every collection call goes through: the rate limiter, the
// forbidden-call cache, and the retry policy.
package gh

import (
	"context"
	"time"

	"github.com/google/go-github/v74/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/github-tools/github-org-stats/cache"
	"github.com/github-tools/github-org-stats/ratelimit"
)

const (
	// DefaultMaxRetries caps retry attempts beyond the initial call.
	DefaultMaxRetries = 3

	// DefaultInitialBackoff is the base delay for exponential backoff.
	DefaultInitialBackoff = time.Second

	// DefaultRateLimitWait applies when a rate-limited response carries
	// no usable reset hint.
	DefaultRateLimitWait = 60 * time.Second

	clientTimeout = 30 * time.Second
)

// Client bundles the GitHub API client with run-scoped retry state.
type Client struct {
	GH        *github.Client
	Limiter   *ratelimit.Limiter
	Forbidden *cache.Forbidden
	Log       *logrus.Logger

	MaxRetries     int
	InitialBackoff time.Duration
	RateLimitWait  time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// New wraps an already-authenticated go-github client.
func New(ghc *github.Client, log *logrus.Logger) (*Client, error) {
	forbidden, err := cache.NewForbidden()
	if err != nil {
		return nil, err
	}
	return &Client{
		GH:             ghc,
		Limiter:        ratelimit.New(),
		Forbidden:      forbidden,
		Log:            log,
		MaxRetries:     DefaultMaxRetries,
		InitialBackoff: DefaultInitialBackoff,
		RateLimitWait:  DefaultRateLimitWait,
		sleep:          sleepCtx,
	}, nil
}

// NewWithToken builds a client authenticated with a bearer token
// (personal access token or installation token).
func NewWithToken(ctx context.Context, token string, log *logrus.Logger) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = clientTimeout
	return New(github.NewClient(tc), log)
}

// LogRateLimit fetches and logs the current core quota. Used for the
// periodic status report during long runs; failures are non-fatal.
func (c *Client) LogRateLimit(ctx context.Context) {
	limits, _, err := c.GH.RateLimit.Get(ctx)
	if err != nil {
		c.Log.Warnf("could not fetch rate limit: %v", err)
		return
	}
	core := limits.GetCore()
	c.Log.Infof("rate limit: core %d/%d (resets at %s)",
		core.Remaining, core.Limit, core.Reset.Format(time.RFC3339))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
