// Package recorder implements the performance recorder and adaptive weight
// updater (spec.md 4.C/4.D): request-path outcome bookkeeping on Endpoint,
// plus a periodic pass that recomputes each endpoint's adaptive weight from
// its last 5 minutes of samples.
package recorder

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/thushan/edge-utils/internal/core/domain"
	"github.com/thushan/edge-utils/internal/logger"
)

const (
	// sampleWindow is the lookback spec.md 4.D filters samples to.
	sampleWindow = 5 * time.Minute
	// adaptiveWeightSampleThreshold triggers a recompute after this many
	// recorded outcomes across all endpoints, whichever comes first
	// against the tickInterval.
	adaptiveWeightSampleThreshold = 100
	tickInterval                  = 30 * time.Second

	rtNormaliser   = 2000.0
	loadNormaliser = 20.0

	weightRT      = 0.60
	weightSuccess = 0.25
	weightLoad    = 0.15
)

// Recorder wraps an EndpointRepository with the request-outcome bookkeeping
// every proxy call drives, and runs the adaptive weight updater on its own
// schedule.
type Recorder struct {
	repo   domain.EndpointRepository
	logger logger.StyledLogger

	sampleCount int64 // atomic, reset each time the threshold fires
}

func New(repo domain.EndpointRepository, log logger.StyledLogger) *Recorder {
	return &Recorder{repo: repo, logger: log}
}

// RecordStart marks the start of a proxied request against endpoint.
func (r *Recorder) RecordStart(endpoint *domain.Endpoint) {
	if endpoint == nil {
		return
	}
	endpoint.IncActive()
}

// RecordEnd marks the end of a proxied request, appending a sample and
// triggering an adaptive weight recompute once 100 outcomes have
// accumulated since the last one (spec.md 4.C/4.D).
func (r *Recorder) RecordEnd(ctx context.Context, endpoint *domain.Endpoint, responseTimeMs float64, success bool) {
	if endpoint == nil {
		return
	}
	endpoint.DecActive()
	endpoint.RecordOutcome(responseTimeMs, success, time.Now())

	if atomic.AddInt64(&r.sampleCount, 1) >= adaptiveWeightSampleThreshold {
		atomic.StoreInt64(&r.sampleCount, 0)
		r.updateAdaptiveWeights(ctx)
	}
}

// Run recomputes adaptive weights every 30s until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.updateAdaptiveWeights(ctx)
		}
	}
}

func (r *Recorder) updateAdaptiveWeights(ctx context.Context) {
	endpoints, err := r.repo.GetAll(ctx)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("adaptive weight update failed to list endpoints", "error", err)
		}
		return
	}

	now := time.Now()
	for _, endpoint := range endpoints {
		samples := endpoint.SamplesWithin(now, sampleWindow)
		if len(samples) == 0 {
			endpoint.SetAdaptiveWeight(1.0)
			continue
		}

		avgRT, successRate, avgActive := summarise(samples)
		rtScore := max0(1 - avgRT/rtNormaliser)
		loadScore := max0(1 - avgActive/loadNormaliser)
		perf := weightRT*rtScore + weightSuccess*successRate + weightLoad*loadScore

		endpoint.SetAdaptiveWeight(endpoint.Weight * perf * 2)
	}
}

func summarise(samples []domain.PerformanceSample) (avgRT, successRate, avgActive float64) {
	var sumRT, sumActive float64
	var successes int
	for _, s := range samples {
		sumRT += s.ResponseTimeMs
		sumActive += float64(s.ActiveRequestsAtStart)
		if s.Success {
			successes++
		}
	}
	n := float64(len(samples))
	return sumRT / n, float64(successes) / n, sumActive / n
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
