package chat

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between accepted requests.
type RateLimiter struct {
	mu          sync.Mutex
	now         func() time.Time
	interval    time.Duration
	lastRequest time.Time
}

// NewRateLimiter returns a limiter that accepts at most one request per
// interval. A non-positive interval disables limiting.
func NewRateLimiter(interval time.Duration, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{now: now, interval: interval}
}

// Allow reports whether a request may proceed and, if so, records it.
// Rejections leave the recorded time untouched.
func (l *RateLimiter) Allow() bool {
	_, ok := l.reserve()
	return ok
}

// reserve is Allow plus the remaining wait when rejected.
func (l *RateLimiter) reserve() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	elapsed := now.Sub(l.lastRequest)
	if !l.lastRequest.IsZero() && elapsed < l.interval {
		return l.interval - elapsed, false
	}
	l.lastRequest = now
	return 0, true
}
