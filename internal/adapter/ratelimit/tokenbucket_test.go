package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucketLimiter_AllowsUpToCapacity(t *testing.T) {
	limiter := NewTokenBucketLimiter("test", 3, 1)
	now := time.Now()

	for i := 0; i < 3; i++ {
		result := limiter.Allow("client-1", 1, now)
		if !result.Allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
	}

	result := limiter.Allow("client-1", 1, now)
	if result.Allowed {
		t.Error("expected 4th request to be denied once capacity is exhausted")
	}
}

func TestTokenBucketLimiter_RefillsOverTime(t *testing.T) {
	limiter := NewTokenBucketLimiter("test", 1, 1)
	now := time.Now()

	limiter.Allow("client-1", 1, now)
	if limiter.Allow("client-1", 1, now).Allowed {
		t.Fatal("expected bucket to be empty immediately after consuming its only token")
	}

	later := now.Add(2 * time.Second)
	if !limiter.Allow("client-1", 1, later).Allowed {
		t.Error("expected bucket to have refilled after 2 seconds at 1 token/sec")
	}
}

func TestTokenBucketLimiter_TracksKeysIndependently(t *testing.T) {
	limiter := NewTokenBucketLimiter("test", 1, 1)
	now := time.Now()

	limiter.Allow("client-1", 1, now)
	if !limiter.Allow("client-2", 1, now).Allowed {
		t.Error("expected a different key to have its own bucket")
	}
}

func TestTokenBucketLimiter_HonoursCost(t *testing.T) {
	limiter := NewTokenBucketLimiter("test", 100, 0.001)
	now := time.Now()

	for i := 0; i < 9; i++ {
		result := limiter.Allow("client-1", 10, now)
		if !result.Allowed {
			t.Fatalf("expected cost-10 request %d to be allowed out of a 100-token bucket", i)
		}
	}
	if result := limiter.Allow("client-1", 10, now); !result.Allowed {
		t.Fatalf("expected the 10th cost-10 request to exactly exhaust the bucket, got remaining %d", result.Remaining)
	}

	if result := limiter.Allow("client-1", 5, now); result.Allowed {
		t.Error("expected a cost-5 request against an exhausted bucket to be denied")
	}
}

func TestTokenBucketLimiter_DefaultsNonPositiveCostToOne(t *testing.T) {
	limiter := NewTokenBucketLimiter("test", 1, 1)
	now := time.Now()

	if !limiter.Allow("client-1", 0, now).Allowed {
		t.Fatal("expected a zero cost to be treated as cost 1 and allowed")
	}
	if limiter.Allow("client-1", 0, now).Allowed {
		t.Error("expected the bucket to be exhausted after the first cost-1 request")
	}
}
