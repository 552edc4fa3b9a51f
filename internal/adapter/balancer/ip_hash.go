package balancer

import (
	"context"
	"crypto/md5" //nolint:gosec // used for request distribution, not security
	"fmt"

	"github.com/thushan/edge-utils/internal/core/domain"
)

// IPHashSelector deterministically maps a client key to one eligible
// endpoint via an MD5 digest, so the same client lands on the same
// endpoint as long as the eligible set is stable (spec.md 4.E).
type IPHashSelector struct{}

func NewIPHashSelector() *IPHashSelector {
	return &IPHashSelector{}
}

func (s *IPHashSelector) Name() string {
	return DefaultBalancerIPHash
}

func (s *IPHashSelector) Select(ctx context.Context, eligible []*domain.Endpoint, clientKey string) (*domain.Endpoint, error) {
	if len(eligible) == 0 {
		return nil, fmt.Errorf("no endpoints available")
	}

	sum := md5.Sum([]byte(clientKey)) //nolint:gosec
	var hash uint32
	for _, b := range sum[:4] {
		hash = hash<<8 | uint32(b)
	}

	index := int(hash) % len(eligible)
	if index < 0 {
		index += len(eligible)
	}

	return eligible[index], nil
}
