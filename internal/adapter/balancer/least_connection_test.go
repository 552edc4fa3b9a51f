package balancer

import (
	"context"
	"testing"

	"github.com/thushan/edge-utils/internal/core/domain"
)

func TestLeastConnectionsSelector_PicksFewestActive(t *testing.T) {
	busy := mustEndpoint(t, "busy", "http://busy")
	idle := mustEndpoint(t, "idle", "http://idle")

	busy.IncActive()
	busy.IncActive()
	idle.IncActive()

	selector := NewLeastConnectionsSelector()
	selected, err := selector.Select(context.Background(), []*domain.Endpoint{busy, idle}, "")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if selected.Name != "idle" {
		t.Errorf("expected idle endpoint, got %s", selected.Name)
	}
}

func TestLeastConnectionsSelector_NoEndpoints(t *testing.T) {
	selector := NewLeastConnectionsSelector()
	if _, err := selector.Select(context.Background(), nil, ""); err == nil {
		t.Error("expected error for empty eligible list")
	}
}
