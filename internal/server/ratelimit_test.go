package server

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newLimiter(limits RateLimitConfig) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 8, 24, 10, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limits)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_NoLimits(t *testing.T) {
	rl, _ := newLimiter(RateLimitConfig{})

	for range 100 {
		require.NoError(t, rl.CheckRateLimit("client", 100))
	}
	usage := rl.GetUsage("client")
	assert.Equal(t, 100, usage.RequestsToday)
	assert.Equal(t, int64(10000), usage.DataToday)
	assert.Equal(t, Usage{}, rl.GetUsage("unknown"))
}

func TestRateLimiter_RequestsPerMinute(t *testing.T) {
	rl, clock := newLimiter(RateLimitConfig{RequestsPerMinute: 2})

	require.NoError(t, rl.CheckRateLimit("a", 0))
	clock.advance(20 * time.Second)
	require.NoError(t, rl.CheckRateLimit("a", 0))

	err := rl.CheckRateLimit("a", 0)
	var rateErr *RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, "minute", rateErr.Type)
	assert.Equal(t, 2, rateErr.Limit)
	assert.Equal(t, 40*time.Second, rateErr.RetryAfter)

	assert.NoError(t, rl.CheckRateLimit("b", 0), "other clients are unaffected")

	clock.advance(40 * time.Second)
	assert.NoError(t, rl.CheckRateLimit("a", 0), "window rolled over")
}

func TestRateLimiter_RequestsPerHour(t *testing.T) {
	rl, clock := newLimiter(RateLimitConfig{RequestsPerHour: 3})

	for range 3 {
		require.NoError(t, rl.CheckRateLimit("a", 0))
		clock.advance(2 * time.Minute)
	}
	err := rl.CheckRateLimit("a", 0)
	var rateErr *RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, "hour", rateErr.Type)

	clock.advance(time.Hour)
	assert.NoError(t, rl.CheckRateLimit("a", 0))
}

func TestRateLimiter_DailyQuotas(t *testing.T) {
	t.Run("requests", func(t *testing.T) {
		rl, clock := newLimiter(RateLimitConfig{MaxRequestsPerDay: 2})
		require.NoError(t, rl.CheckRateLimit("a", 0))
		require.NoError(t, rl.CheckRateLimit("a", 0))

		err := rl.CheckRateLimit("a", 0)
		var quotaErr *QuotaExceededError
		require.True(t, errors.As(err, &quotaErr))
		assert.Equal(t, "requests", quotaErr.Type)
		assert.Equal(t, int64(2), quotaErr.Used)
		assert.Equal(t, time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC), quotaErr.Resets)

		clock.advance(14 * time.Hour)
		assert.NoError(t, rl.CheckRateLimit("a", 0), "quota resets at midnight")
	})

	t.Run("data", func(t *testing.T) {
		rl, _ := newLimiter(RateLimitConfig{MaxDataPerDay: 1000})
		require.NoError(t, rl.CheckRateLimit("a", 600))

		err := rl.CheckRateLimit("a", 500)
		var quotaErr *QuotaExceededError
		require.True(t, errors.As(err, &quotaErr))
		assert.Equal(t, "data", quotaErr.Type)
		assert.Equal(t, int64(600), quotaErr.Used)
		assert.Contains(t, quotaErr.Error(), "quota exceeded for data")

		assert.NoError(t, rl.CheckRateLimit("a", 400))
	})

	t.Run("same day next year is a new day", func(t *testing.T) {
		rl, clock := newLimiter(RateLimitConfig{MaxRequestsPerDay: 1})
		require.NoError(t, rl.CheckRateLimit("a", 0))
		clock.advance(365 * 24 * time.Hour)
		assert.NoError(t, rl.CheckRateLimit("a", 0))
	})
}

func TestRateLimiter_RejectedRequestsAreNotCounted(t *testing.T) {
	rl, _ := newLimiter(RateLimitConfig{RequestsPerMinute: 1})
	require.NoError(t, rl.CheckRateLimit("a", 10))
	require.Error(t, rl.CheckRateLimit("a", 10))
	require.Error(t, rl.CheckRateLimit("a", 10))

	usage := rl.GetUsage("a")
	assert.Equal(t, 1, usage.RequestsLastMinute)
	assert.Equal(t, int64(10), usage.DataToday)
}
