package balancer

import (
	"context"
	"fmt"
	"sync"

	"github.com/thushan/edge-utils/internal/core/domain"
)

// WeightedRoundRobinSelector implements smooth weighted round-robin: each
// endpoint accrues its static Weight every round, and the endpoint with the
// highest accrued total is chosen and knocked down by the sum of all
// weights (spec.md 4.E).
type WeightedRoundRobinSelector struct {
	mu      sync.Mutex
	current map[string]float64
}

func NewWeightedRoundRobinSelector() *WeightedRoundRobinSelector {
	return &WeightedRoundRobinSelector{
		current: make(map[string]float64),
	}
}

func (w *WeightedRoundRobinSelector) Name() string {
	return DefaultBalancerWeightedRoundRobin
}

func (w *WeightedRoundRobinSelector) Select(ctx context.Context, eligible []*domain.Endpoint, clientKey string) (*domain.Endpoint, error) {
	if len(eligible) == 0 {
		return nil, fmt.Errorf("no endpoints available")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var total float64
	var selected *domain.Endpoint
	var best float64

	for _, endpoint := range eligible {
		weight := endpoint.Weight
		if weight <= 0 {
			weight = 1
		}
		total += weight

		next := w.current[endpoint.URLString] + weight
		w.current[endpoint.URLString] = next

		if selected == nil || next > best {
			selected = endpoint
			best = next
		}
	}

	w.current[selected.URLString] -= total

	return selected, nil
}
