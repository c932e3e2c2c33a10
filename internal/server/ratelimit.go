package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitConfig bounds how often one client may call the extraction
// endpoints. Zero disables the corresponding limit.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64 // bytes
}

// RateLimiter manages request rate limiting and quotas per client.
type RateLimiter struct {
	mu      sync.Mutex
	limits  RateLimitConfig
	clients map[string]*clientUsage
	now     func() time.Time
}

// clientUsage tracks fixed windows for one client.
type clientUsage struct {
	minuteStart   time.Time
	hourStart     time.Time
	dayStart      time.Time
	minuteCount   int
	hourCount     int
	requestsToday int
	dataToday     int64
}

// Usage is a snapshot of one client's counters.
type Usage struct {
	RequestsLastMinute int
	RequestsLastHour   int
	RequestsToday      int
	DataToday          int64
}

// NewRateLimiter creates a rate limiter with the given limits.
func NewRateLimiter(limits RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limits:  limits,
		clients: make(map[string]*clientUsage),
		now:     time.Now,
	}
}

// CheckRateLimit admits a request of dataSize bytes from clientID, or
// returns a *RateLimitError or *QuotaExceededError.
func (rl *RateLimiter) CheckRateLimit(clientID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	u := rl.usage(clientID, now)
	u.roll(now)

	if l := rl.limits.RequestsPerMinute; l > 0 && u.minuteCount >= l {
		return &RateLimitError{Type: "minute", Limit: l, RetryAfter: u.minuteStart.Add(time.Minute).Sub(now)}
	}
	if l := rl.limits.RequestsPerHour; l > 0 && u.hourCount >= l {
		return &RateLimitError{Type: "hour", Limit: l, RetryAfter: u.hourStart.Add(time.Hour).Sub(now)}
	}

	resets := startOfDay(now).AddDate(0, 0, 1)
	if l := rl.limits.MaxRequestsPerDay; l > 0 && u.requestsToday >= l {
		return &QuotaExceededError{Type: "requests", Limit: int64(l), Used: int64(u.requestsToday), Resets: resets}
	}
	if l := rl.limits.MaxDataPerDay; l > 0 && u.dataToday+dataSize > l {
		return &QuotaExceededError{Type: "data", Limit: l, Used: u.dataToday, Resets: resets}
	}

	u.minuteCount++
	u.hourCount++
	u.requestsToday++
	u.dataToday += dataSize
	return nil
}

// GetUsage returns a snapshot of the client's current counters.
func (rl *RateLimiter) GetUsage(clientID string) Usage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	u, ok := rl.clients[clientID]
	if !ok {
		return Usage{}
	}
	u.roll(rl.now())
	return Usage{
		RequestsLastMinute: u.minuteCount,
		RequestsLastHour:   u.hourCount,
		RequestsToday:      u.requestsToday,
		DataToday:          u.dataToday,
	}
}

func (rl *RateLimiter) usage(clientID string, now time.Time) *clientUsage {
	u, ok := rl.clients[clientID]
	if !ok {
		u = &clientUsage{minuteStart: now, hourStart: now, dayStart: startOfDay(now)}
		rl.clients[clientID] = u
	}
	return u
}

// roll starts new windows once the current ones have elapsed.
func (u *clientUsage) roll(now time.Time) {
	if now.Sub(u.minuteStart) >= time.Minute {
		u.minuteStart, u.minuteCount = now, 0
	}
	if now.Sub(u.hourStart) >= time.Hour {
		u.hourStart, u.hourCount = now, 0
	}
	if day := startOfDay(now); !day.Equal(u.dayStart) {
		u.dayStart, u.requestsToday, u.dataToday = day, 0, 0
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string        // "minute" or "hour"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError represents a quota violation.
type QuotaExceededError struct {
	Type   string    // "requests" or "data"
	Limit  int64     // the limit that was exceeded
	Used   int64     // current usage
	Resets time.Time // when the quota resets
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
