package domain

import "time"

// BreakerState is the closed three-state variant from spec.md 4.F.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

func (s BreakerState) String() string { return string(s) }

// BreakerStats is a point-in-time snapshot exposed for observability.
// FailureRate and WindowRequests describe the current monitoring window
// (spec.md 4.G getStats): the window resets once it has run for
// MonitoringPeriod, independent of the CLOSED->OPEN trip decision, which is
// driven by ConsecutiveFailures alone.
type BreakerStats struct {
	State                BreakerState
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	OpenedAt             time.Time
	LastTransition       time.Time
	FailureRate          float64
	WindowRequests       int
	WindowStart          time.Time
}

// CircuitBreaker is the request-path breaker contract (spec.md 4.F),
// distinct from the health checker's own per-endpoint circuit in
// internal/adapter/health which governs probe scheduling, not request
// admission.
type CircuitBreaker interface {
	// Allow reports whether a request may proceed; in HALF_OPEN it admits a
	// single probe request and denies concurrent others.
	Allow() bool
	RecordSuccess()
	RecordFailure()
	State() BreakerState
	Stats() BreakerStats
}
