package strava

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterCountsRequests(t *testing.T) {
	r := NewRateLimiter(0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Wait(ctx))
	}

	short, daily := r.Usage()
	assert.Equal(t, 3, short)
	assert.Equal(t, 3, daily)
}

func TestRateLimiterUpdateFromHeaders(t *testing.T) {
	r := NewRateLimiter(0)

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "200, 2000")
	h.Set("X-RateLimit-Usage", "150,1999")
	r.UpdateFromHeaders(h)

	short, daily := r.Status()
	assert.Equal(t, 50, short)
	assert.Equal(t, 1, daily)

	// malformed headers are ignored
	bad := http.Header{}
	bad.Set("X-RateLimit-Usage", "lots")
	r.UpdateFromHeaders(bad)
	short, daily = r.Status()
	assert.Equal(t, 50, short)
	assert.Equal(t, 1, daily)
}

func TestRateLimiterWaitsWhenBudgetExhausted(t *testing.T) {
	r := NewRateLimiter(0)

	h := http.Header{}
	h.Set("X-RateLimit-Usage", "100,100")
	r.UpdateFromHeaders(h)

	delay := r.reserve(time.Now())
	assert.Greater(t, delay, time.Duration(0))
	assert.LessOrEqual(t, delay, shortWindow)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

func TestRateLimiterWindowReset(t *testing.T) {
	r := NewRateLimiter(0)

	h := http.Header{}
	h.Set("X-RateLimit-Usage", "100,100")
	r.UpdateFromHeaders(h)

	// once the quarter hour rolls over the short budget is fresh again
	assert.Equal(t, time.Duration(0), r.reserve(time.Now().Add(shortWindow+time.Second)))
	short, _ := r.Usage()
	assert.Equal(t, 1, short)
}
