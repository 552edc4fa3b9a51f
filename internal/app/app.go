package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/thushan/edge-utils/internal/adapter/balancer"
	"github.com/thushan/edge-utils/internal/adapter/breaker"
	"github.com/thushan/edge-utils/internal/adapter/discovery"
	"github.com/thushan/edge-utils/internal/adapter/health"
	"github.com/thushan/edge-utils/internal/adapter/metrics"
	"github.com/thushan/edge-utils/internal/adapter/ratelimit"
	"github.com/thushan/edge-utils/internal/adapter/recorder"
	"github.com/thushan/edge-utils/internal/adapter/security"
	"github.com/thushan/edge-utils/internal/adapter/stats"
	"github.com/thushan/edge-utils/internal/adapter/tracer"
	"github.com/thushan/edge-utils/internal/config"
	"github.com/thushan/edge-utils/internal/core/domain"
	"github.com/thushan/edge-utils/internal/core/ports"
	"github.com/thushan/edge-utils/internal/logger"
	"github.com/thushan/edge-utils/internal/util"
)

// Application wires every component spec.md 4.A-4.L names into a single
// HTTP front door: endpoint pool, health checker, performance recorder,
// balancer, sticky sessions, circuit breaker, rate limiter, metrics sink
// and tracer.
type Application struct {
	configMu sync.RWMutex
	config   *config.Config

	logger logger.StyledLogger

	server *http.Server

	repository    domain.EndpointRepository
	healthChecker *health.HTTPHealthChecker
	recorder      *recorder.Recorder
	selector      domain.EndpointSelector
	sticky        *balancer.StickyManager
	breaker       domain.CircuitBreaker

	rateLimiter  *ratelimit.Manager
	metrics      ports.MetricsCollector
	promAdapter  *metrics.PrometheusAdapter
	tracer       ports.Tracer
	tracerRunner *tracer.W3CTracer

	statsCollector  *stats.Collector
	securityAdapter *security.Adapters

	proxies   map[string]*httputil.ReverseProxy
	proxiesMu sync.RWMutex

	stopCleanup chan struct{}
	errCh       chan error
}

func New(cfg *config.Config, log logger.StyledLogger) (*Application, error) {
	repository, err := discovery.NewStaticEndpointRepository(cfg.Balancer)
	if err != nil {
		return nil, fmt.Errorf("building endpoint repository: %w", err)
	}

	healthChecker := health.NewHTTPHealthChecker(repository, log)
	if cfg.HealthCheck.WorkerCount > 0 {
		healthChecker.SetWorkerCount(cfg.HealthCheck.WorkerCount)
	}

	factory := balancer.NewFactory()
	selector, err := factory.Create(cfg.Balancer.Policy)
	if err != nil {
		return nil, fmt.Errorf("building balancer: %w", err)
	}

	statsCollector := stats.NewCollector(log)
	_, securityAdapters := security.NewSecurityServices(cfg, statsCollector, log)

	var metricsCollector ports.MetricsCollector
	var promAdapter *metrics.PrometheusAdapter
	inProcessMetrics := metrics.NewCollector()
	if cfg.Metrics.Enabled {
		promAdapter = metrics.NewPrometheusAdapter()
		metricsCollector = metrics.NewFanOut(inProcessMetrics, promAdapter)
	} else {
		metricsCollector = inProcessMetrics
	}

	rateLimiter := ratelimit.NewManager(cfg.RateLimit, metricsCollector, log)

	w3cTracer := tracer.NewW3CTracer(cfg.Tracing.SampleRate)
	if cfg.Tracing.Enabled {
		if cfg.Tracing.OTLPEndpoint != "" {
			exporter, err := tracer.NewOTLPExporter(context.Background(), cfg.Tracing.OTLPEndpoint, cfg.Tracing.ServiceName)
			if err != nil {
				return nil, fmt.Errorf("building otlp exporter: %w", err)
			}
			w3cTracer.SetExporter(exporter)
		} else {
			w3cTracer.SetExporter(tracer.NewStdoutExporter(os.Stdout))
		}
	}

	breakerCfg := cfg.CircuitBreaker
	circuitBreaker := breaker.New(breakerCfg.FailureThreshold, breakerCfg.RecoveryTimeout, breakerCfg.MonitoringPeriod, breakerCfg.HalfOpenSuccess)

	app := &Application{
		config:          cfg,
		logger:          log,
		repository:      repository,
		healthChecker:   healthChecker,
		recorder:        recorder.New(repository, log),
		selector:        selector,
		sticky:          balancer.NewStickyManager(cfg.StickySession.TTL),
		breaker:         circuitBreaker,
		rateLimiter:     rateLimiter,
		metrics:         metricsCollector,
		promAdapter:     promAdapter,
		tracer:          w3cTracer,
		tracerRunner:    w3cTracer,
		statsCollector:  statsCollector,
		securityAdapter: securityAdapters,
		proxies:         make(map[string]*httputil.ReverseProxy),
		stopCleanup:     make(chan struct{}),
		errCh:           make(chan error, 1),
	}

	healthChecker.SetRecoveryCallback(health.RecoveryCallbackFunc(func(ctx context.Context, endpoint *domain.Endpoint) error {
		log.InfoHealthy("endpoint recovered", endpoint.Name)
		return nil
	}))

	mux := http.NewServeMux()
	app.registerRoutes(mux)

	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      securityAdapters.CreateChainMiddleware()(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return app, nil
}

func (a *Application) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/internal/health", a.healthHandler)
	mux.HandleFunc("/internal/status", a.statusHandler)
	if a.promAdapter != nil {
		mux.Handle("/metrics", a.promAdapter.Handler())
	}
	mux.HandleFunc("/", a.proxyHandler)
}

// Start begins health checking, the adaptive-weight recorder loop, and the
// HTTP listener; it returns once the listener is accepting connections or
// has failed to bind.
func (a *Application) Start(ctx context.Context) error {
	if err := a.healthChecker.StartChecking(ctx); err != nil {
		return fmt.Errorf("starting health checker: %w", err)
	}

	go a.recorder.Run(ctx)
	go a.tracerRunner.Run(ctx)
	go a.stickyCleanupLoop(ctx)
	go a.metricsFlushLoop(ctx)

	go func() {
		a.logger.Info("listening", "address", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- err
		}
	}()

	select {
	case err := <-a.errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func (a *Application) Stop(ctx context.Context) error {
	close(a.stopCleanup)
	if a.securityAdapter != nil {
		a.securityAdapter.Stop()
	}
	if err := a.healthChecker.StopChecking(ctx); err != nil {
		a.logger.Warn("error stopping health checker", "error", err)
	}
	return a.server.Shutdown(ctx)
}

func (a *Application) stickyCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCleanup:
			return
		case now := <-ticker.C:
			a.sticky.Cleanup(now)
		}
	}
}

func (a *Application) metricsFlushLoop(ctx context.Context) {
	cfg := a.getConfig()
	interval := cfg.Metrics.FlushInterval
	if interval <= 0 {
		interval = time.Minute
	}
	retention := cfg.Metrics.RetentionPeriod
	if retention <= 0 {
		retention = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCleanup:
			return
		case now := <-ticker.C:
			a.metrics.Flush(now, retention)
		}
	}
}

// healthHandler reports 200 when at least one endpoint is eligible, 503
// otherwise (spec.md 4.A's eligible() feeding the front door's own health).
// It honours the caller's Accept header: plain text when text/plain is the
// highest-quality entry, JSON otherwise (including when no Accept is set).
func (a *Application) healthHandler(w http.ResponseWriter, r *http.Request) {
	eligible, _ := a.repository.GetEligible(r.Context())
	healthy := len(eligible) > 0
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	if prefersPlainText(r.Header.Get("Accept")) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		if healthy {
			fmt.Fprintf(w, "healthy %d\n", len(eligible))
		} else {
			fmt.Fprintln(w, "unhealthy")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if healthy {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "healthy", "eligible": len(eligible)})
	} else {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "unhealthy", "eligible": 0})
	}
}

// prefersPlainText reports whether the client's highest-quality Accept entry
// is text/plain rather than application/json or a wildcard.
func prefersPlainText(header string) bool {
	entries := util.ParseAcceptHeader(header)
	if len(entries) == 0 {
		return false
	}
	return entries[0].MediaType == "text/plain"
}

func (a *Application) statusHandler(w http.ResponseWriter, r *http.Request) {
	all, _ := a.repository.GetAll(r.Context())
	type endpointStatus struct {
		Name           string  `json:"name"`
		URL            string  `json:"url"`
		Status         string  `json:"status"`
		ActiveRequests int64   `json:"active_requests"`
		AdaptiveWeight float64 `json:"adaptive_weight"`
		TotalSuccesses int64   `json:"total_successes"`
		TotalFailures  int64   `json:"total_failures"`
	}
	out := make([]endpointStatus, 0, len(all))
	for _, e := range all {
		out = append(out, endpointStatus{
			Name:           e.Name,
			URL:            e.URLString,
			Status:         string(e.Status),
			ActiveRequests: e.ActiveRequests(),
			AdaptiveWeight: e.AdaptiveWeight(),
			TotalSuccesses: e.TotalSuccesses(),
			TotalFailures:  e.TotalFailures(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"breaker":   a.breaker.Stats(),
		"endpoints": out,
	})
}

// proxyHandler admits the request through the circuit breaker and rate
// limiter, then selects an endpoint (sticky session first, then the
// configured balancer policy), forwards it, and records the outcome.
func (a *Application) proxyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.StartSpan(r.Context(), "proxy.request")
	defer a.tracer.EndSpan(span)

	if tp := r.Header.Get("traceparent"); tp != "" {
		if tc, ok := a.tracer.Extract(tp); ok {
			ctx = tracer.WithTraceContext(ctx, tc)
		}
	}
	r = r.WithContext(ctx)

	cfg := a.getConfig()
	clientKey := util.GetClientIP(r, cfg.Server.RateLimits.TrustProxyHeaders, cfg.Server.RateLimits.TrustedProxyCIDRsParsed)

	if !a.breaker.Allow() {
		a.metrics.IncrCounter("breaker_rejections_total", nil, 1)
		w.Header().Set("Retry-After", "60")
		http.Error(w, "circuit breaker open", http.StatusServiceUnavailable)
		return
	}

	opts := domain.RateLimitOptions{
		Strategy: r.Header.Get("X-RateLimit-Strategy"),
		By:       r.Header.Get("X-RateLimit-By"),
	}
	cost := int64(1)
	if raw := r.Header.Get("X-RateLimit-Cost"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			cost = parsed
		}
	}
	result, allowed := a.rateLimiter.Check(r, cost, opts, time.Now())
	ratelimit.WriteHeaders(w, result)
	if !allowed {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	eligible, err := a.repository.GetEligible(r.Context())
	if err != nil || len(eligible) == 0 {
		a.breaker.RecordFailure()
		http.Error(w, "no healthy upstreams", http.StatusServiceUnavailable)
		return
	}

	endpoint := a.pickEndpoint(ctx, eligible, clientKey)
	if endpoint == nil {
		http.Error(w, "no healthy upstreams", http.StatusServiceUnavailable)
		return
	}

	a.tracer.SetAttributes(span, map[string]any{"endpoint": endpoint.Name})
	a.recorder.RecordStart(endpoint)
	start := time.Now()

	proxy := a.proxyFor(endpoint)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	proxy.ServeHTTP(rec, r)

	elapsedMs := float64(time.Since(start).Milliseconds())
	success := rec.status < http.StatusInternalServerError
	a.recorder.RecordEnd(ctx, endpoint, elapsedMs, success)
	a.metrics.ObserveHistogram("proxy_request_duration_ms", map[string]string{"endpoint": endpoint.Name}, elapsedMs)

	if success {
		a.breaker.RecordSuccess()
	} else {
		a.breaker.RecordFailure()
	}
}

// pickEndpoint tries sticky sessions first (when enabled), then falls back
// to the configured selection policy (spec.md 4.F then 4.E).
func (a *Application) pickEndpoint(ctx context.Context, eligible []*domain.Endpoint, clientKey string) *domain.Endpoint {
	if a.getConfig().StickySession.Enabled {
		if endpoint := a.sticky.Resolve(clientKey, eligible, time.Now()); endpoint != nil {
			return endpoint
		}
	}
	endpoint, err := a.selector.Select(ctx, eligible, clientKey)
	if err != nil {
		return nil
	}
	return endpoint
}

func (a *Application) proxyFor(endpoint *domain.Endpoint) *httputil.ReverseProxy {
	a.proxiesMu.RLock()
	proxy, ok := a.proxies[endpoint.URLString]
	a.proxiesMu.RUnlock()
	if ok {
		return proxy
	}

	a.proxiesMu.Lock()
	defer a.proxiesMu.Unlock()
	if proxy, ok := a.proxies[endpoint.URLString]; ok {
		return proxy
	}

	proxy = httputil.NewSingleHostReverseProxy(endpoint.URL)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		a.logger.ErrorWithEndpoint("proxy error", endpoint.Name, "error", err)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}
	a.proxies[endpoint.URLString] = proxy
	return proxy
}

// statusRecorder captures the status code a ReverseProxy wrote, since
// httputil.ReverseProxy never exposes it directly.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
