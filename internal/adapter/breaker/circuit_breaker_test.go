package breaker

import (
	"testing"
	"time"

	"github.com/thushan/edge-utils/internal/core/domain"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New(3, time.Minute, time.Minute, 2)

	for i := 0; i < 3; i++ {
		if !cb.Allow() {
			t.Fatalf("expected closed breaker to allow request %d", i)
		}
		cb.RecordFailure()
	}

	if cb.State() != domain.BreakerOpen {
		t.Fatalf("expected breaker to open after %d failures, got %s", 3, cb.State())
	}
	if cb.Allow() {
		t.Error("expected open breaker to deny requests")
	}
}

func TestCircuitBreaker_InterleavedSuccessPreventsTrip(t *testing.T) {
	cb := New(3, time.Minute, time.Minute, 2)

	for i := 0; i < 5; i++ {
		cb.Allow()
		cb.RecordFailure()
		cb.Allow()
		cb.RecordSuccess()
	}

	if cb.State() != domain.BreakerClosed {
		t.Fatalf("expected breaker to stay closed when failures never run consecutively, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenClosesAfterSuccesses(t *testing.T) {
	cb := New(1, 10*time.Millisecond, time.Minute, 2)

	cb.Allow()
	cb.RecordFailure()
	if cb.State() != domain.BreakerOpen {
		t.Fatalf("expected open state, got %s", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("expected half-open probe to be admitted after recovery timeout")
	}
	if cb.State() != domain.BreakerHalfOpen {
		t.Fatalf("expected half-open state, got %s", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != domain.BreakerHalfOpen {
		t.Fatalf("expected to remain half-open after one success, got %s", cb.State())
	}

	cb.Allow()
	cb.RecordSuccess()
	if cb.State() != domain.BreakerClosed {
		t.Fatalf("expected breaker to close after %d consecutive successes, got %s", 2, cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := New(1, 10*time.Millisecond, time.Minute, 2)

	cb.Allow()
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("expected half-open probe to be admitted")
	}
	cb.RecordFailure()

	if cb.State() != domain.BreakerOpen {
		t.Fatalf("expected breaker to reopen after half-open failure, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenDeniesConcurrentProbes(t *testing.T) {
	cb := New(1, 10*time.Millisecond, time.Minute, 2)

	cb.Allow()
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("expected first half-open probe to be admitted")
	}
	if cb.Allow() {
		t.Error("expected concurrent half-open probe to be denied")
	}
}
