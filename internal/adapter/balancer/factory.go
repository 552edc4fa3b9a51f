package balancer

import (
	"fmt"
	"sync"

	"github.com/thushan/edge-utils/internal/core/domain"
)

// The closed set of selection policies spec.md 4.E names.
const (
	DefaultBalancerRoundRobin         = "round-robin"
	DefaultBalancerWeightedRoundRobin = "weighted-round-robin"
	DefaultBalancerLeastConnections   = "least-connections"
	DefaultBalancerRandom             = "random"
	DefaultBalancerIPHash             = "ip-hash"
	DefaultBalancerAlter              = "alter"
)

// Factory builds an EndpointSelector by policy name. Each policy is
// stateful per balancer instance, so Create returns a fresh selector rather
// than a shared singleton.
type Factory struct {
	creators map[string]func() domain.EndpointSelector
	mu       sync.RWMutex
}

func NewFactory() *Factory {
	f := &Factory{
		creators: make(map[string]func() domain.EndpointSelector),
	}

	f.Register(DefaultBalancerRoundRobin, func() domain.EndpointSelector {
		return NewRoundRobinSelector()
	})
	f.Register(DefaultBalancerWeightedRoundRobin, func() domain.EndpointSelector {
		return NewWeightedRoundRobinSelector()
	})
	f.Register(DefaultBalancerLeastConnections, func() domain.EndpointSelector {
		return NewLeastConnectionsSelector()
	})
	f.Register(DefaultBalancerRandom, func() domain.EndpointSelector {
		return NewRandomSelector()
	})
	f.Register(DefaultBalancerIPHash, func() domain.EndpointSelector {
		return NewIPHashSelector()
	})
	f.Register(DefaultBalancerAlter, func() domain.EndpointSelector {
		return NewAlterSelector()
	})

	return f
}

func (f *Factory) Register(name string, creator func() domain.EndpointSelector) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[name] = creator
}

func (f *Factory) Create(name string) (domain.EndpointSelector, error) {
	f.mu.RLock()
	creator, exists := f.creators[name]
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown load balancer policy: %s", name)
	}

	return creator(), nil
}

func (f *Factory) GetAvailableStrategies() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	strategies := make([]string, 0, len(f.creators))
	for name := range f.creators {
		strategies = append(strategies, name)
	}
	return strategies
}
