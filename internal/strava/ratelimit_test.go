package strava

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		in    string
		short int
		daily int
		ok    bool
	}{
		{"100,1000", 100, 1000, true},
		{" 12 , 340 ", 12, 340, true},
		{"", 0, 0, false},
		{"100", 0, 0, false},
		{"a,1", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			short, daily, ok := parsePair(tt.in)
			if ok != tt.ok || short != tt.short || daily != tt.daily {
				t.Errorf("parsePair(%q) = %d, %d, %v, want %d, %d, %v", tt.in, short, daily, ok, tt.short, tt.daily, tt.ok)
			}
		})
	}
}

func TestRateLimiterHeaders(t *testing.T) {
	r := NewRateLimiter()
	short, daily := r.Remaining()
	assert.Equal(t, 100, short)
	assert.Equal(t, 1000, daily)

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "200,2000")
	h.Set("X-RateLimit-Usage", "20,500")
	r.UpdateFromHeaders(h)

	short, daily = r.Remaining()
	assert.Equal(t, 180, short)
	assert.Equal(t, 1500, daily)
}

func TestRateLimiterDailyQuota(t *testing.T) {
	r := NewRateLimiter()
	h := http.Header{}
	h.Set("X-RateLimit-Usage", "10,1000")
	r.UpdateFromHeaders(h)

	err := r.Wait(context.Background())
	assert.ErrorIs(t, err, ErrDailyQuota)
}

func TestRateLimiterCountsRequests(t *testing.T) {
	r := NewRateLimiter()
	require.NoError(t, r.Wait(context.Background()))
	require.NoError(t, r.Wait(context.Background()))

	short, daily := r.Remaining()
	assert.Equal(t, 98, short)
	assert.Equal(t, 998, daily)
}

func TestRateLimiterShortWindowCancelled(t *testing.T) {
	r := NewRateLimiter()
	h := http.Header{}
	h.Set("X-RateLimit-Usage", "100,100")
	r.UpdateFromHeaders(h)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func limiterAt(clock *time.Time) *RateLimiter {
	r := NewRateLimiter()
	r.now = func() time.Time { return *clock }
	r.shortReset, r.dailyReset = time.Time{}, time.Time{}
	r.roll()
	return r
}

func TestRateLimiterWindowsRoll(t *testing.T) {
	clock := time.Date(2024, 6, 15, 10, 5, 0, 0, time.UTC)
	r := limiterAt(&clock)
	assert.Equal(t, time.Date(2024, 6, 15, 10, 15, 0, 0, time.UTC), r.shortReset)
	assert.Equal(t, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), r.dailyReset)

	h := http.Header{}
	h.Set("X-RateLimit-Usage", "100,400")
	r.UpdateFromHeaders(h)

	clock = clock.Add(10 * time.Minute)
	short, daily := r.Remaining()
	assert.Equal(t, 100, short, "short window rolled over")
	assert.Equal(t, 600, daily)

	clock = time.Date(2024, 6, 16, 0, 0, 1, 0, time.UTC)
	_, daily = r.Remaining()
	assert.Equal(t, 1000, daily, "daily window rolled over")
}

func TestRateLimiterThrottlesWithoutHeaders(t *testing.T) {
	clock := time.Date(2024, 6, 15, 10, 5, 0, 0, time.UTC)
	r := limiterAt(&clock)
	r.shortUsage = r.shortLimit

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded, "local count alone must hold requests")

	clock = clock.Add(15 * time.Minute)
	require.NoError(t, r.Wait(context.Background()))
	short, _ := r.Remaining()
	assert.Equal(t, 99, short)
}
