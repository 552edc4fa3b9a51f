package ratelimit

import (
	"sync"
	"time"

	"github.com/thushan/edge-utils/internal/core/domain"
)

// TokenBucketLimiter implements domain.RateLimiter with a per-key token
// bucket (spec.md 4.H): each key gets its own bucket, refilled continuously
// at RefillRatePerSecond up to Capacity, with cost tokens consumed per Allow
// call (cost defaults to 1) only when the bucket holds enough to cover it.
type TokenBucketLimiter struct {
	name                string
	capacity            float64
	refillRatePerSecond float64

	mu      sync.Mutex
	buckets map[string]*bucketState
}

type bucketState struct {
	tokens     float64
	lastRefill time.Time
}

func NewTokenBucketLimiter(name string, capacity int, refillRatePerSecond float64) *TokenBucketLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	if refillRatePerSecond <= 0 {
		refillRatePerSecond = float64(capacity)
	}

	return &TokenBucketLimiter{
		name:                name,
		capacity:            float64(capacity),
		refillRatePerSecond: refillRatePerSecond,
		buckets:             make(map[string]*bucketState),
	}
}

func (l *TokenBucketLimiter) Name() string { return l.name }

func (l *TokenBucketLimiter) Allow(key string, cost int64, now time.Time) domain.RateLimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cost <= 0 {
		cost = 1
	}
	costF := float64(cost)

	state, ok := l.buckets[key]
	if !ok {
		state = &bucketState{tokens: l.capacity, lastRefill: now}
		l.buckets[key] = state
	}

	elapsed := now.Sub(state.lastRefill).Seconds()
	if elapsed > 0 {
		state.tokens = min(l.capacity, state.tokens+elapsed*l.refillRatePerSecond)
		state.lastRefill = now
	}

	if state.tokens >= costF {
		state.tokens -= costF
		return domain.RateLimitResult{
			Allowed:   true,
			Limit:     int(l.capacity),
			Remaining: int(state.tokens),
			ResetAt:   now.Add(l.refillDuration(l.capacity - state.tokens)),
		}
	}

	deficit := costF - state.tokens
	retryAfter := l.refillDuration(deficit)
	return domain.RateLimitResult{
		Allowed:    false,
		Limit:      int(l.capacity),
		Remaining:  int(state.tokens),
		ResetAt:    now.Add(retryAfter),
		RetryAfter: retryAfter,
	}
}

func (l *TokenBucketLimiter) refillDuration(tokens float64) time.Duration {
	if l.refillRatePerSecond <= 0 {
		return time.Duration(0)
	}
	return time.Duration(tokens / l.refillRatePerSecond * float64(time.Second))
}
