// Package ratelimit throttles outbound GitHub API calls. It combines a
// proactive token bucket with reactive state parsed from the
// X-RateLimit response headers: when the remaining quota drops below a
// reserve, Wait sleeps until the reset time plus a small buffer.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// FullQuota is the authenticated hourly REST quota.
	FullQuota = 5000

	// Reserve is the number of requests kept back before waiting for
	// the quota to reset.
	Reserve = 100

	// proactiveRate keeps steady-state usage under the hourly quota
	// (~4300 requests/hour).
	proactiveRate = 1.2

	// resetBuffer is added past the reset time so the window has
	// actually rolled over server-side.
	resetBuffer = 10 * time.Second

	headerRemaining = "X-RateLimit-Remaining"
	headerLimit     = "X-RateLimit-Limit"
	headerReset     = "X-RateLimit-Reset"
)

type Limiter struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetTime time.Time
	bucket    *rate.Limiter
	reserve   int

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func New() *Limiter {
	return NewWithRate(proactiveRate, 1)
}

// NewWithRate builds a limiter with a custom token-bucket rate and
// burst, for callers with an elevated quota.
func NewWithRate(rps float64, burst int) *Limiter {
	return &Limiter{
		remaining: FullQuota,
		limit:     FullQuota,
		bucket:    rate.NewLimiter(rate.Limit(rps), burst),
		reserve:   Reserve,
		sleep:     sleepCtx,
	}
}

// Wait blocks until it is safe to issue the next request.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	remaining := l.remaining
	resetTime := l.resetTime
	l.mu.Unlock()

	if remaining < l.reserve && time.Now().Before(resetTime) {
		return l.sleep(ctx, time.Until(resetTime)+resetBuffer)
	}
	return nil
}

// Update refreshes quota state from GitHub response headers.
func (l *Limiter) Update(resp *http.Response) {
	if resp == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if v := resp.Header.Get(headerRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			l.remaining = n
		}
	}
	if v := resp.Header.Get(headerLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			l.limit = n
		}
	}
	if v := resp.Header.Get(headerReset); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			l.resetTime = time.Unix(n, 0)
		}
	}
}

// Remaining returns the last observed remaining quota.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining
}

// Limit returns the last observed quota ceiling.
func (l *Limiter) Limit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

// ResetTime returns the last observed quota reset time.
func (l *Limiter) ResetTime() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resetTime
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
