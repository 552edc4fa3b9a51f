package balancer

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/thushan/edge-utils/internal/core/domain"
)

const (
	alterLoadNormaliser = 20.0
	alterRTNormaliser   = 3000.0
	alterTrendWindow    = 30 * time.Second
	alterJitterMax      = 0.05

	alterWeightLoad      = 0.25
	alterWeightRT        = 0.25
	alterWeightErr       = 0.20
	alterWeightTrend     = 0.15
	alterWeightAdaptive  = 0.15
)

// AlterSelector picks the eligible endpoint with the highest composite
// performance score: load, response time, error rate, short-term trend and
// adaptive weight, jittered to break ties (spec.md 4.E).
type AlterSelector struct{}

func NewAlterSelector() *AlterSelector {
	return &AlterSelector{}
}

func (a *AlterSelector) Name() string {
	return DefaultBalancerAlter
}

func (a *AlterSelector) Select(ctx context.Context, eligible []*domain.Endpoint, clientKey string) (*domain.Endpoint, error) {
	if len(eligible) == 0 {
		return nil, fmt.Errorf("no endpoints available")
	}
	if len(eligible) == 1 {
		return eligible[0], nil
	}

	now := time.Now()
	var best *domain.Endpoint
	var bestScore float64

	for _, endpoint := range eligible {
		score := a.score(endpoint, now) * (1 + jitter())
		if best == nil || score > bestScore {
			best = endpoint
			bestScore = score
		}
	}

	return best, nil
}

func (a *AlterSelector) score(e *domain.Endpoint, now time.Time) float64 {
	activeRequests := float64(e.ActiveRequests())
	normalizedLoad := max0(1 - activeRequests/alterLoadNormaliser)

	avgRT := e.AvgResponseTimeMs()
	normalizedRT := max0(1 - avgRT/alterRTNormaliser)

	totalFailures := float64(e.TotalFailures())
	totalRequests := float64(e.TotalSuccesses() + e.TotalFailures())
	if totalRequests < 1 {
		totalRequests = 1
	}
	failureRate := totalFailures / totalRequests
	normalizedErr := max0(1 - failureRate)

	normalizedTrend := a.trend(e, now)

	adaptiveWeightFactor := e.AdaptiveWeight()
	if adaptiveWeightFactor > 2 {
		adaptiveWeightFactor = 2
	}

	return alterWeightLoad*normalizedLoad +
		alterWeightRT*normalizedRT +
		alterWeightErr*normalizedErr +
		alterWeightTrend*normalizedTrend +
		alterWeightAdaptive*(adaptiveWeightFactor-1)
}

// trend compares the last 30s of samples against the prior 30s: improving
// response time and load pushes the score above the 0.5 midpoint.
func (a *AlterSelector) trend(e *domain.Endpoint, now time.Time) float64 {
	recentCutoff := now.Add(-alterTrendWindow)
	priorCutoff := now.Add(-2 * alterTrendWindow)

	var recent, prior []domain.PerformanceSample
	for _, s := range e.AllSamples() {
		switch {
		case s.Timestamp.After(recentCutoff):
			recent = append(recent, s)
		case s.Timestamp.After(priorCutoff):
			prior = append(prior, s)
		}
	}
	if len(recent) == 0 || len(prior) == 0 {
		return 0.5
	}

	recentRT, recentLoad := sampleAverages(recent)
	priorRT, priorLoad := sampleAverages(prior)

	rtImprovement := clamp01(0.5 + (priorRT-recentRT)/alterRTNormaliser)
	loadImprovement := clamp01(0.5 + (priorLoad-recentLoad)/alterLoadNormaliser)

	return clamp01((rtImprovement + loadImprovement) / 2)
}

func sampleAverages(samples []domain.PerformanceSample) (avgRT, avgActive float64) {
	var sumRT, sumActive float64
	for _, s := range samples {
		sumRT += s.ResponseTimeMs
		sumActive += float64(s.ActiveRequestsAtStart)
	}
	n := float64(len(samples))
	return sumRT / n, sumActive / n
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func jitter() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<20))
	if err != nil {
		return 0
	}
	return (float64(n.Int64()) / float64(1<<20)) * alterJitterMax
}
