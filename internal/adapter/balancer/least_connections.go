package balancer

import (
	"context"
	"fmt"

	"github.com/thushan/edge-utils/internal/core/domain"
)

// LeastConnectionsSelector picks the eligible endpoint with the fewest
// in-flight requests, reading the counter the proxy path maintains on each
// Endpoint via IncActive/DecActive (spec.md 4.E).
type LeastConnectionsSelector struct{}

func NewLeastConnectionsSelector() *LeastConnectionsSelector {
	return &LeastConnectionsSelector{}
}

func (l *LeastConnectionsSelector) Name() string {
	return DefaultBalancerLeastConnections
}

func (l *LeastConnectionsSelector) Select(ctx context.Context, eligible []*domain.Endpoint, clientKey string) (*domain.Endpoint, error) {
	if len(eligible) == 0 {
		return nil, fmt.Errorf("no endpoints available")
	}

	selected := eligible[0]
	min := selected.ActiveRequests()
	for _, endpoint := range eligible[1:] {
		if active := endpoint.ActiveRequests(); active < min {
			min = active
			selected = endpoint
		}
	}

	return selected, nil
}
