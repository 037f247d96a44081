package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseWithHeaders(remaining, limit int, reset time.Time) *http.Response {
	h := http.Header{}
	h.Set(headerRemaining, strconv.Itoa(remaining))
	h.Set(headerLimit, strconv.Itoa(limit))
	h.Set(headerReset, strconv.FormatInt(reset.Unix(), 10))
	return &http.Response{Header: h}
}

func TestUpdate(t *testing.T) {
	t.Run("parses quota headers", func(t *testing.T) {
		l := New()
		reset := time.Now().Add(20 * time.Minute).Truncate(time.Second)
		l.Update(responseWithHeaders(4200, 5000, reset))

		assert.Equal(t, 4200, l.Remaining())
		assert.Equal(t, 5000, l.Limit())
		assert.True(t, l.ResetTime().Equal(reset))
	})

	t.Run("ignores nil and headerless responses", func(t *testing.T) {
		l := New()
		l.Update(nil)
		l.Update(&http.Response{Header: http.Header{}})

		assert.Equal(t, FullQuota, l.Remaining())
		assert.Equal(t, FullQuota, l.Limit())
	})

	t.Run("ignores malformed header values", func(t *testing.T) {
		l := New()
		h := http.Header{}
		h.Set(headerRemaining, "not-a-number")
		l.Update(&http.Response{Header: h})

		assert.Equal(t, FullQuota, l.Remaining())
	})
}

func TestWait(t *testing.T) {
	t.Run("passes through with quota available", func(t *testing.T) {
		l := New()
		slept := false
		l.sleep = func(ctx context.Context, d time.Duration) error {
			slept = true
			return nil
		}
		require.NoError(t, l.Wait(context.Background()))
		assert.False(t, slept)
	})

	t.Run("sleeps past reset when quota is nearly exhausted", func(t *testing.T) {
		l := New()
		var slept time.Duration
		l.sleep = func(ctx context.Context, d time.Duration) error {
			slept = d
			return nil
		}
		reset := time.Now().Add(5 * time.Minute)
		l.Update(responseWithHeaders(Reserve-1, FullQuota, reset))

		require.NoError(t, l.Wait(context.Background()))
		assert.Greater(t, slept, 5*time.Minute, "waits until reset plus buffer")
	})

	t.Run("does not sleep when reset has already passed", func(t *testing.T) {
		l := New()
		slept := false
		l.sleep = func(ctx context.Context, d time.Duration) error {
			slept = true
			return nil
		}
		l.Update(responseWithHeaders(0, FullQuota, time.Now().Add(-time.Minute)))

		require.NoError(t, l.Wait(context.Background()))
		assert.False(t, slept)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		l := New()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, l.Wait(ctx))
	})
}
