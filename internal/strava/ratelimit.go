package strava

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Strava allows 100 requests per 15 minutes and 1000 per day. The token
// bucket paces bursts; the header counters stop us before a window is spent.
const (
	shortWindow = 15 * time.Minute
	minInterval = 150 * time.Millisecond
)

// RateLimiter paces calls and tracks the quota reported by Strava.
type RateLimiter struct {
	pace *rate.Limiter

	mu         sync.Mutex
	shortLimit int
	shortUsage int
	dailyLimit int
	dailyUsage int
	shortReset time.Time
	dailyReset time.Time
	now        func() time.Time
}

// NewRateLimiter creates a limiter with Strava's default quotas
func NewRateLimiter() *RateLimiter {
	r := &RateLimiter{
		pace:       rate.NewLimiter(rate.Every(minInterval), 5),
		shortLimit: 100,
		dailyLimit: 1000,
		now:        time.Now,
	}
	r.roll()
	return r
}

// roll zeroes the counters of windows that have ended. Short windows end on
// quarter hours, the daily one at midnight UTC. Callers hold mu.
func (r *RateLimiter) roll() {
	now := r.now()
	if !now.Before(r.shortReset) {
		r.shortUsage = 0
		r.shortReset = now.Truncate(shortWindow).Add(shortWindow)
	}
	if !now.Before(r.dailyReset) {
		r.dailyUsage = 0
		y, m, d := now.UTC().Date()
		r.dailyReset = time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
	}
}

// ErrDailyQuota is returned when the daily request quota is used up.
var ErrDailyQuota = errors.New("strava daily request quota exhausted")

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	r.roll()
	if r.dailyLimit > 0 && r.dailyUsage >= r.dailyLimit {
		r.mu.Unlock()
		return ErrDailyQuota
	}
	var wait time.Duration
	if r.shortLimit > 0 && r.shortUsage >= r.shortLimit {
		wait = r.shortReset.Sub(r.now())
	}
	r.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := r.pace.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.roll()
	r.shortUsage++
	r.dailyUsage++
	r.mu.Unlock()
	return nil
}

// UpdateFromHeaders syncs usage with X-RateLimit-Limit / X-RateLimit-Usage,
// both formatted "short,daily".
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roll()
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.shortUsage, r.dailyUsage = short, daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.shortLimit, r.dailyLimit = short, daily
	}
}

// Remaining returns the requests left in the 15-minute and daily windows.
func (r *RateLimiter) Remaining() (short, daily int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roll()
	return r.shortLimit - r.shortUsage, r.dailyLimit - r.dailyUsage
}

func parsePair(v string) (int, int, bool) {
	a, b, found := strings.Cut(v, ",")
	if !found {
		return 0, 0, false
	}
	x, err1 := strconv.Atoi(strings.TrimSpace(a))
	y, err2 := strconv.Atoi(strings.TrimSpace(b))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return x, y, true
}
