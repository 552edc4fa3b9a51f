package discovery

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/thushan/edge-utils/internal/config"
	"github.com/thushan/edge-utils/internal/core/domain"
	"github.com/thushan/edge-utils/internal/util"
)

// DefaultSampleCapacity bounds the per-endpoint performance sample ring
// buffer the ALTER policy's trend component reads from.
const DefaultSampleCapacity = 64

// StaticEndpointRepository is a fixed, config-defined endpoint set. Unlike
// the teacher's discovery package this never adds or removes endpoints at
// runtime: spec.md's traffic-management domain takes the endpoint list as
// given, it doesn't probe for new upstreams.
//
// Endpoint instances are shared, not copied, between GetAll/GetEligible and
// the health checker/balancer: the counters the balancer reads (active
// requests, adaptive weight, sample history) live on the same *Endpoint the
// proxy path mutates.
type StaticEndpointRepository struct {
	endpoints []*domain.Endpoint
	mu        sync.RWMutex
}

// NewStaticEndpointRepository builds the endpoint set from config.
func NewStaticEndpointRepository(cfg config.BalancerConfig) (*StaticEndpointRepository, error) {
	repo := &StaticEndpointRepository{}

	for _, ec := range cfg.Endpoints {
		rawURL, err := url.Parse(ec.URL)
		if err != nil {
			return nil, fmt.Errorf("endpoint %q: invalid url %q: %w", ec.Name, ec.URL, err)
		}

		// health_check_url may be a bare path ("/healthz"): resolve it against
		// the endpoint's own URL rather than require every config entry to
		// repeat the scheme and host.
		healthURL := rawURL
		if ec.HealthCheckURL != "" {
			parsed, err := url.Parse(ec.HealthCheckURL)
			if err != nil {
				return nil, fmt.Errorf("endpoint %q: invalid health_check_url %q: %w", ec.Name, ec.HealthCheckURL, err)
			}
			if parsed.IsAbs() {
				healthURL = parsed
			} else {
				resolved := util.JoinURLPath(ec.URL, ec.HealthCheckURL)
				healthURL, err = url.Parse(resolved)
				if err != nil {
					return nil, fmt.Errorf("endpoint %q: invalid resolved health_check_url %q: %w", ec.Name, resolved, err)
				}
			}
		}

		endpoint := domain.NewEndpoint(ec.Name, rawURL, healthURL, ec.Weight, DefaultSampleCapacity)
		repo.endpoints = append(repo.endpoints, endpoint)
	}

	return repo, nil
}

func (r *StaticEndpointRepository) GetAll(ctx context.Context) ([]*domain.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out, nil
}

func (r *StaticEndpointRepository) GetEligible(ctx context.Context) ([]*domain.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eligible := make([]*domain.Endpoint, 0, len(r.endpoints))
	for _, endpoint := range r.endpoints {
		if endpoint.IsRoutable() {
			eligible = append(eligible, endpoint)
		}
	}
	return eligible, nil
}

// UpdateEndpoint is a no-op: the health checker mutates the shared *Endpoint
// in place, so there is nothing left to reconcile back into the repository.
func (r *StaticEndpointRepository) UpdateEndpoint(ctx context.Context, endpoint *domain.Endpoint) error {
	return nil
}
