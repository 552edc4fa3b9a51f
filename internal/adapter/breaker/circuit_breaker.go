package breaker

import (
	"sync"
	"time"

	"github.com/thushan/edge-utils/internal/core/domain"
)

const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 60 * time.Second
	DefaultMonitoringPeriod = 10 * time.Second
	DefaultHalfOpenSuccess  = 2
)

// CircuitBreaker is the request-path admission breaker (spec.md 4.G): a
// CLOSED/OPEN/HALF_OPEN state machine distinct from the health checker's
// own per-endpoint breaker, which only governs probe scheduling.
//
// CLOSED admits everything; once ConsecutiveFailures reaches
// FailureThreshold the breaker trips OPEN and stays there for
// RecoveryTimeout. After the timeout a single HALF_OPEN probe is admitted;
// HalfOpenSuccess consecutive successes close the breaker again, and a
// single failure reopens it. MonitoringPeriod governs only the separate
// failure-rate window reported by Stats — it never influences the trip.
type CircuitBreaker struct {
	failureThreshold int
	recoveryTimeout  time.Duration
	monitoringPeriod time.Duration
	halfOpenSuccess  int

	mu                   sync.Mutex
	state                domain.BreakerState
	consecutiveSuccesses int
	consecutiveFailures  int
	openedAt             time.Time
	lastTransition       time.Time
	halfOpenInFlight     bool

	windowStart    time.Time
	windowRequests int
	windowFailures int
}

func New(failureThreshold int, recoveryTimeout, monitoringPeriod time.Duration, halfOpenSuccess int) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = DefaultRecoveryTimeout
	}
	if monitoringPeriod <= 0 {
		monitoringPeriod = DefaultMonitoringPeriod
	}
	if halfOpenSuccess <= 0 {
		halfOpenSuccess = DefaultHalfOpenSuccess
	}

	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		monitoringPeriod: monitoringPeriod,
		halfOpenSuccess:  halfOpenSuccess,
		state:            domain.BreakerClosed,
		lastTransition:   time.Now(),
		windowStart:      time.Now(),
	}
}

// Allow reports whether a request may proceed. In HALF_OPEN it admits
// exactly one probe at a time and denies concurrent others.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case domain.BreakerClosed:
		return true
	case domain.BreakerOpen:
		if time.Since(cb.openedAt) >= cb.recoveryTimeout {
			cb.transitionLocked(domain.BreakerHalfOpen)
			cb.halfOpenInFlight = true
			return true
		}
		return false
	case domain.BreakerHalfOpen:
		if cb.halfOpenInFlight {
			return false
		}
		cb.halfOpenInFlight = true
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.rollWindowLocked(time.Now())
	cb.windowRequests++

	cb.consecutiveFailures = 0
	cb.halfOpenInFlight = false

	switch cb.state {
	case domain.BreakerHalfOpen:
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.halfOpenSuccess {
			cb.transitionLocked(domain.BreakerClosed)
		}
	case domain.BreakerClosed:
		cb.consecutiveSuccesses++
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.rollWindowLocked(now)
	cb.windowRequests++
	cb.windowFailures++

	cb.consecutiveSuccesses = 0
	cb.halfOpenInFlight = false
	cb.consecutiveFailures++

	switch cb.state {
	case domain.BreakerHalfOpen:
		cb.transitionLocked(domain.BreakerOpen)
		cb.openedAt = now
	case domain.BreakerClosed:
		if cb.consecutiveFailures >= cb.failureThreshold {
			cb.transitionLocked(domain.BreakerOpen)
			cb.openedAt = now
		}
	}
}

// rollWindowLocked resets the failure-rate window once MonitoringPeriod has
// elapsed since it started. Caller must hold cb.mu.
func (cb *CircuitBreaker) rollWindowLocked(now time.Time) {
	if now.Sub(cb.windowStart) < cb.monitoringPeriod {
		return
	}
	cb.windowStart = now
	cb.windowRequests = 0
	cb.windowFailures = 0
}

func (cb *CircuitBreaker) State() domain.BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Stats() domain.BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.rollWindowLocked(time.Now())

	var failureRate float64
	if cb.windowRequests > 0 {
		failureRate = float64(cb.windowFailures) / float64(cb.windowRequests)
	}

	return domain.BreakerStats{
		State:                cb.state,
		ConsecutiveFailures:  cb.consecutiveFailures,
		ConsecutiveSuccesses: cb.consecutiveSuccesses,
		OpenedAt:             cb.openedAt,
		LastTransition:       cb.lastTransition,
		FailureRate:          failureRate,
		WindowRequests:       cb.windowRequests,
		WindowStart:          cb.windowStart,
	}
}

func (cb *CircuitBreaker) transitionLocked(next domain.BreakerState) {
	cb.state = next
	cb.lastTransition = time.Now()
	cb.consecutiveSuccesses = 0
}
