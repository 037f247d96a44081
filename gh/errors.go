package gh

import (
	"errors"
	"time"

	"github.com/google/go-github/v74/github"
)

// IsNotFound reports whether err is a 404 from the GitHub API.
func IsNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == 404
	}
	return false
}

// IsForbidden reports whether err is a plain permission 403. Rate-limit
// 403s surface as *github.RateLimitError / *github.AbuseRateLimitError
// and are classified separately.
func IsForbidden(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == 403
	}
	return false
}

// IsServerError reports whether err is a 5xx from the GitHub API.
func IsServerError(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode >= 500
	}
	return false
}

// RateLimitWait returns the server-indicated wait before retrying a
// rate-limited call, and whether err was a rate-limit error at all.
// A zero duration means the server gave no usable hint.
func RateLimitWait(err error) (time.Duration, bool) {
	var rlErr *github.RateLimitError
	if errors.As(err, &rlErr) {
		if wait := time.Until(rlErr.Rate.Reset.Time); wait > 0 {
			return wait, true
		}
		return 0, true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		if abuseErr.RetryAfter != nil {
			return *abuseErr.RetryAfter, true
		}
		return 0, true
	}
	return 0, false
}
