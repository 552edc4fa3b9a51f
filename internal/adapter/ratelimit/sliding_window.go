package ratelimit

import (
	"sync"
	"time"

	"github.com/thushan/edge-utils/internal/core/domain"
)

// SlidingWindowLimiter implements domain.RateLimiter with a per-key sliding
// log (spec.md 4.I): each Allow call drops timestamps older than Window from
// the front of the deque, then admits if what remains is under MaxRequests.
type SlidingWindowLimiter struct {
	name        string
	maxRequests int
	window      time.Duration

	mu   sync.Mutex
	logs map[string][]time.Time
}

func NewSlidingWindowLimiter(name string, maxRequests int, window time.Duration) *SlidingWindowLimiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &SlidingWindowLimiter{
		name:        name,
		maxRequests: maxRequests,
		window:      window,
		logs:        make(map[string][]time.Time),
	}
}

func (l *SlidingWindowLimiter) Name() string { return l.name }

// Allow admits one request per call; the sliding window has no notion of
// cost (spec.md 4.I only ever checks one request at a time), so cost is
// accepted for interface parity and ignored.
func (l *SlidingWindowLimiter) Allow(key string, cost int64, now time.Time) domain.RateLimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	log := dropBefore(l.logs[key], cutoff)

	if len(log) >= l.maxRequests {
		l.logs[key] = log
		retryAfter := log[0].Add(l.window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return domain.RateLimitResult{
			Allowed:    false,
			Limit:      l.maxRequests,
			Remaining:  0,
			ResetAt:    log[0].Add(l.window),
			RetryAfter: retryAfter,
		}
	}

	log = append(log, now)
	l.logs[key] = log

	resetAt := now.Add(l.window)
	if len(log) > 0 {
		resetAt = log[0].Add(l.window)
	}

	return domain.RateLimitResult{
		Allowed:   true,
		Limit:     l.maxRequests,
		Remaining: l.maxRequests - len(log),
		ResetAt:   resetAt,
	}
}

func dropBefore(log []time.Time, cutoff time.Time) []time.Time {
	kept := log[:0]
	for _, ts := range log {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
