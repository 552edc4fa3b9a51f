package security

import (
	"net/http"

	"github.com/thushan/edge-utils/internal/config"
	"github.com/thushan/edge-utils/internal/core/ports"
	"github.com/thushan/edge-utils/internal/logger"
)

type Services struct {
	Chain   *ports.SecurityChain
	Metrics ports.SecurityMetricsService
}

type Adapters struct {
	SizeValidation *EntrySizeGuard
	Metrics        *MetricsAdapter
	Chain          *ports.SecurityChain
}

// NewSecurityServices wires the request-path security validators into a
// single chain. Throughput limiting lives in internal/adapter/ratelimit and
// is applied separately by the proxy handler; this chain only guards against
// oversized requests before they reach it.
func NewSecurityServices(cfg *config.Config, statsCollector ports.StatsCollector, logger logger.StyledLogger) (*Services, *Adapters) {
	metricsAdapter := NewSecurityMetricsAdapter(statsCollector, logger)
	sizeValidator := NewSizeValidator(cfg.Server.RequestLimits, metricsAdapter, logger)

	chain := ports.NewSecurityChain(
		sizeValidator,
	)

	services := &Services{
		Chain:   chain,
		Metrics: metricsAdapter,
	}

	adapters := &Adapters{
		SizeValidation: sizeValidator,
		Metrics:        metricsAdapter,
		Chain:          chain,
	}

	return services, adapters
}

// Stop releases any resources held by the security adapters. The size guard
// holds none today; the method stays so callers don't need to know that.
func (sa *Adapters) Stop() {}

func (sa *Adapters) CreateChainMiddleware() func(http.Handler) http.Handler {
	return sa.SizeValidation.CreateMiddleware()
}
