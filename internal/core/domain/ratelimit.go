package domain

import "time"

// RateLimitAlgorithm is the closed variant of supported limiter strategies.
type RateLimitAlgorithm string

const (
	TokenBucketAlgorithm    RateLimitAlgorithm = "token_bucket"
	SlidingWindowAlgorithm  RateLimitAlgorithm = "sliding_window"
)

// RateLimitConfig names one limiter strategy (spec.md 3's RateLimitConfig).
type RateLimitConfig struct {
	Name                string
	Algorithm           RateLimitAlgorithm
	Capacity            int           // token bucket burst size, or sliding window max requests
	RefillRatePerSecond float64       // token bucket only
	Window              time.Duration // sliding window only
	Exemptions          *FilterConfig // client keys matching Include/excluded by Exclude bypass the limiter
}

// RateLimitResult is what a limiter strategy returns for one check() call.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimitOptions is the manager's check(request, options={strategy, by})
// surface (spec.md 4.J/6): Strategy names which configured strategy to
// dispatch to (the first configured strategy when empty), and By names the
// identity extractor to use ("ip" when empty).
type RateLimitOptions struct {
	Strategy string
	By       string
}

// RateLimiter is the strategy interface both algorithms implement
// (spec.md 4.J). cost lets a caller consume more than one unit per check
// (spec.md 4.H); strategies that don't model cost (sliding window) ignore it.
type RateLimiter interface {
	Allow(key string, cost int64, now time.Time) RateLimitResult
	Name() string
}
