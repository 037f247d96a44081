package gh

import (
	"context"

	"github.com/cenkalti/backoff"
	"github.com/google/go-github/v74/github"

	"github.com/github-tools/github-org-stats/cache"
)

// Call executes one GitHub API operation through the retry policy.
// Every collection query goes through here as a closure, so the policy
// stays generic without reflection.
//
// Outcome classification:
//   - 404: absent, no retry.
//   - rate limit exceeded: sleep the server-indicated interval (default
//     60s) and retry, up to the attempt cap.
//   - 403: recorded in the forbidden cache; identical calls
//     short-circuit for the rest of the run.
//   - 5xx and any other error: exponential backoff, up to the cap.
//
// Exhausted or terminal failures return (zero, false); callers treat
// missing data as normal.
func Call[T any](ctx context.Context, c *Client, op, args string, fn func(ctx context.Context) (T, *github.Response, error)) (T, bool) {
	var zero T

	key := cache.Key(op, args)
	if c.Forbidden.Contains(key) {
		return zero, false
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.InitialBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return zero, false
		}

		result, resp, err := fn(ctx)
		if resp != nil {
			c.Limiter.Update(resp.Response)
		}
		if err == nil {
			return result, true
		}

		switch {
		case ctx.Err() != nil:
			return zero, false

		case IsNotFound(err):
			c.Log.Debugf("%s(%s): resource not found", op, args)
			return zero, false

		case isRateLimited(err):
			wait, _ := RateLimitWait(err)
			if wait <= 0 {
				wait = c.RateLimitWait
			}
			if attempt == c.MaxRetries {
				c.Log.Errorf("%s(%s): rate limit exceeded, max retries reached", op, args)
				return zero, false
			}
			c.Log.Warnf("%s(%s): rate limit exceeded, waiting %s", op, args, wait)
			if c.sleep(ctx, wait) != nil {
				return zero, false
			}

		case IsForbidden(err):
			c.Forbidden.Mark(key)
			c.Log.Debugf("%s(%s): access forbidden (cached)", op, args)
			return zero, false

		default:
			// Server errors and anything unexpected share the backoff
			// policy.
			if attempt == c.MaxRetries {
				c.Log.Errorf("%s(%s): giving up after %d attempts: %v", op, args, attempt+1, err)
				return zero, false
			}
			wait := bo.NextBackOff()
			c.Log.Warnf("%s(%s): %v, retrying in %s", op, args, err, wait)
			if c.sleep(ctx, wait) != nil {
				return zero, false
			}
		}
	}

	return zero, false
}

func isRateLimited(err error) bool {
	_, ok := RateLimitWait(err)
	return ok
}

// Paginate drains a paginated list operation through Call, following
// the next-page cursor from each response until exhaustion. A failed
// page still returns whatever earlier pages produced.
func Paginate[T any](ctx context.Context, c *Client, op, args string, fn func(ctx context.Context, page int) ([]T, *github.Response, error)) ([]T, bool) {
	var all []T
	page := 0
	for {
		var next int
		items, ok := Call(ctx, c, op, args, func(ctx context.Context) ([]T, *github.Response, error) {
			items, resp, err := fn(ctx, page)
			if resp != nil {
				next = resp.NextPage
			}
			return items, resp, err
		})
		if !ok {
			return all, len(all) > 0
		}
		all = append(all, items...)
		if next == 0 {
			return all, true
		}
		page = next
	}
}
