package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Strava rate limits:
// - 100 requests per 15 minutes
// - 1000 requests per day
const (
	DefaultShortLimit      = 100
	DefaultDailyLimit      = 1000
	DefaultRequestInterval = 150 * time.Millisecond // ~6.6 req/s max
	shortWindow            = 15 * time.Minute
)

// window tracks usage against one of Strava's budgets
type window struct {
	limit    int
	usage    int
	resetsAt time.Time
}

// RateLimiter paces requests and tracks Strava's 15-minute and daily budgets
type RateLimiter struct {
	pacer *rate.Limiter

	mu    sync.Mutex
	short window
	daily window
}

// NewRateLimiter creates a rate limiter with Strava's limits
func NewRateLimiter(interval time.Duration) *RateLimiter {
	now := time.Now()
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimiter{
		pacer: rate.NewLimiter(limit, 1),
		short: window{limit: DefaultShortLimit, resetsAt: nextShortReset(now)},
		daily: window{limit: DefaultDailyLimit, resetsAt: nextDailyReset(now)},
	}
}

// Wait blocks until a request can be made without exceeding rate limits
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay := r.reserve(time.Now())
		if delay <= 0 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	return r.pacer.Wait(ctx)
}

// reserve counts a request against both budgets, or returns how long to wait
// for the exhausted one to reset
func (r *RateLimiter) reserve(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Reset windows if expired
	if !now.Before(r.short.resetsAt) {
		r.short.usage = 0
		r.short.resetsAt = nextShortReset(now)
	}
	if !now.Before(r.daily.resetsAt) {
		r.daily.usage = 0
		r.daily.resetsAt = nextDailyReset(now)
	}

	if r.daily.usage >= r.daily.limit {
		return r.daily.resetsAt.Sub(now)
	}
	if r.short.usage >= r.short.limit {
		return r.short.resetsAt.Sub(now)
	}

	r.short.usage++
	r.daily.usage++
	return 0
}

// UpdateFromHeaders updates rate limit state from Strava response headers
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strava returns: X-RateLimit-Limit: "100,1000" and X-RateLimit-Usage: "34,512"
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.short.usage = short
		r.daily.usage = daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.short.limit = short
		r.daily.limit = daily
	}
}

// Status returns current rate limit status
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.limit - r.short.usage, r.daily.limit - r.daily.usage
}

// Usage returns current usage counts
func (r *RateLimiter) Usage() (shortUsage, dailyUsage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.usage, r.daily.usage
}

func parsePair(v string) (int, int, bool) {
	parts := strings.Split(v, ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

// Strava's short window resets on the quarter hour, the daily one at midnight UTC
func nextShortReset(now time.Time) time.Time {
	return now.Truncate(shortWindow).Add(shortWindow)
}

func nextDailyReset(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}
