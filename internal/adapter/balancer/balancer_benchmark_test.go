package balancer

import (
	"context"
	"testing"
	"time"

	"github.com/thushan/edge-utils/internal/core/domain"
)

func TestWeightedRoundRobinSelector_FavoursHigherWeight(t *testing.T) {
	heavy := mustEndpoint(t, "heavy", "http://heavy")
	heavy.Weight = 3
	light := mustEndpoint(t, "light", "http://light")
	light.Weight = 1

	eligible := []*domain.Endpoint{heavy, light}
	selector := NewWeightedRoundRobinSelector()

	counts := map[string]int{}
	for i := 0; i < 8; i++ {
		endpoint, err := selector.Select(context.Background(), eligible, "")
		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		counts[endpoint.Name]++
	}

	if counts["heavy"] <= counts["light"] {
		t.Errorf("expected heavy endpoint to be picked more often, got %v", counts)
	}
}

func TestRandomSelector_AlwaysPicksFromEligible(t *testing.T) {
	eligible := []*domain.Endpoint{
		mustEndpoint(t, "a", "http://a"),
		mustEndpoint(t, "b", "http://b"),
	}
	selector := NewRandomSelector()

	for i := 0; i < 20; i++ {
		endpoint, err := selector.Select(context.Background(), eligible, "")
		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		if endpoint != eligible[0] && endpoint != eligible[1] {
			t.Fatalf("selected endpoint not in eligible list")
		}
	}
}

func TestIPHashSelector_IsDeterministic(t *testing.T) {
	eligible := []*domain.Endpoint{
		mustEndpoint(t, "a", "http://a"),
		mustEndpoint(t, "b", "http://b"),
		mustEndpoint(t, "c", "http://c"),
	}
	selector := NewIPHashSelector()

	first, err := selector.Select(context.Background(), eligible, "203.0.113.7")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		next, err := selector.Select(context.Background(), eligible, "203.0.113.7")
		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		if next != first {
			t.Errorf("expected the same client key to map to the same endpoint")
		}
	}
}

func TestAlterSelector_PrefersIdleEndpoint(t *testing.T) {
	loaded := mustEndpoint(t, "loaded", "http://loaded")
	for i := 0; i < 15; i++ {
		loaded.IncActive()
	}
	idle := mustEndpoint(t, "idle", "http://idle")

	selector := NewAlterSelector()
	selected, err := selector.Select(context.Background(), []*domain.Endpoint{loaded, idle}, "")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if selected.Name != "idle" {
		t.Errorf("expected idle endpoint to score higher, got %s", selected.Name)
	}
}

func TestAlterSelector_SingleEligibleShortCircuits(t *testing.T) {
	only := mustEndpoint(t, "only", "http://only")
	selector := NewAlterSelector()

	selected, err := selector.Select(context.Background(), []*domain.Endpoint{only}, "")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if selected != only {
		t.Error("expected the sole eligible endpoint to be returned")
	}
}

func TestStickyManager_BindsAndReuses(t *testing.T) {
	eligible := []*domain.Endpoint{
		mustEndpoint(t, "a", "http://a"),
		mustEndpoint(t, "b", "http://b"),
	}
	manager := NewStickyManager(30 * time.Minute)
	now := time.Now()

	first := manager.Resolve("client-1", eligible, now)
	second := manager.Resolve("client-1", eligible, now.Add(time.Minute))

	if first != second {
		t.Error("expected the same client to be bound to the same endpoint")
	}
}

func TestStickyManager_ExpiresAfterTTL(t *testing.T) {
	eligible := []*domain.Endpoint{
		mustEndpoint(t, "a", "http://a"),
	}
	manager := NewStickyManager(time.Minute)
	now := time.Now()

	manager.Resolve("client-1", eligible, now)
	manager.Cleanup(now.Add(2 * time.Minute))

	manager.mu.Lock()
	_, exists := manager.entries["client-1"]
	manager.mu.Unlock()

	if exists {
		t.Error("expected expired sticky entry to be cleaned up")
	}
}
