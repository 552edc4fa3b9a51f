package balancer

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/thushan/edge-utils/internal/core/domain"
)

// RandomSelector picks a uniformly random eligible endpoint per request
// (spec.md 4.E).
type RandomSelector struct{}

func NewRandomSelector() *RandomSelector {
	return &RandomSelector{}
}

func (r *RandomSelector) Name() string {
	return DefaultBalancerRandom
}

func (r *RandomSelector) Select(ctx context.Context, eligible []*domain.Endpoint, clientKey string) (*domain.Endpoint, error) {
	if len(eligible) == 0 {
		return nil, fmt.Errorf("no endpoints available")
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(eligible))))
	if err != nil {
		return eligible[0], nil
	}

	return eligible[n.Int64()], nil
}
