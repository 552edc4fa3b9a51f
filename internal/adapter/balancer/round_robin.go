package balancer

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/thushan/edge-utils/internal/core/domain"
)

// RoundRobinSelector cycles through the eligible set in order, ignoring
// weight and client affinity (spec.md 4.E).
type RoundRobinSelector struct {
	counter uint64
}

func NewRoundRobinSelector() *RoundRobinSelector {
	return &RoundRobinSelector{}
}

func (r *RoundRobinSelector) Name() string {
	return DefaultBalancerRoundRobin
}

func (r *RoundRobinSelector) Select(ctx context.Context, eligible []*domain.Endpoint, clientKey string) (*domain.Endpoint, error) {
	if len(eligible) == 0 {
		return nil, fmt.Errorf("no endpoints available")
	}

	current := atomic.AddUint64(&r.counter, 1) - 1
	index := current % uint64(len(eligible))

	return eligible[index], nil
}
