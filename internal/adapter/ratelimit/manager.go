package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thushan/edge-utils/internal/config"
	"github.com/thushan/edge-utils/internal/core/domain"
	"github.com/thushan/edge-utils/internal/core/ports"
	"github.com/thushan/edge-utils/internal/logger"
	"github.com/thushan/edge-utils/internal/util/pattern"
)

// storeErrorMetric is incremented whenever a limiter's backing store can't
// be consulted; the manager fails open rather than block traffic on a
// bookkeeping failure.
const storeErrorMetric = "ratelimit_store_error_total"

// extractorFunc resolves the identity key for a named "by" value.
type extractorFunc func(*http.Request) string

// exemptResult is the fixed shape spec.md 4.J mandates for exempt/unmatched
// checks: no bucket was consulted, so limit and remaining carry no meaning.
var exemptResult = domain.RateLimitResult{Allowed: true, Limit: -1, Remaining: -1, ResetAt: time.Unix(0, 0)}

// Manager dispatches a request to one named strategy, honours the shared
// exemption list, and assembles the X-RateLimit-* response headers
// (spec.md 4.J).
type Manager struct {
	strategies map[string]domain.RateLimiter
	order      []string
	extractors map[string]extractorFunc
	exemptions *domain.FilterConfig
	metrics    ports.MetricsCollector
	logger     logger.StyledLogger
}

func NewManager(cfg config.RateLimitSetConfig, metrics ports.MetricsCollector, log logger.StyledLogger) *Manager {
	exemptions := &domain.FilterConfig{
		Include: cfg.Exemptions.Include,
		Exclude: cfg.Exemptions.Exclude,
	}

	strategies := make(map[string]domain.RateLimiter, len(cfg.Strategies))
	order := make([]string, 0, len(cfg.Strategies))
	for _, strategy := range cfg.Strategies {
		var limiter domain.RateLimiter
		switch strategy.Type {
		case "sliding_window":
			limiter = NewSlidingWindowLimiter(strategy.Name, strategy.MaxRequests, strategy.Window)
		default:
			limiter = NewTokenBucketLimiter(strategy.Name, int(strategy.Capacity), strategy.RefillRatePerSecond)
		}
		strategies[strategy.Name] = limiter
		order = append(order, strategy.Name)
	}

	return &Manager{
		strategies: strategies,
		order:      order,
		extractors: map[string]extractorFunc{"ip": extractClientKey},
		exemptions: exemptions,
		metrics:    metrics,
		logger:     log,
	}
}

// RegisterExtractor adds a named identity extractor consulted when
// options.By names it (spec.md 4.J's "other by values look up named
// extractors").
func (m *Manager) RegisterExtractor(name string, fn func(*http.Request) string) {
	m.extractors[name] = fn
}

// Check dispatches to the strategy named by options.Strategy (the first
// configured strategy when empty), keyed by the identity options.By selects
// ("ip" when empty). An exempt identity or a request with no configured
// strategies always passes with the fixed exempt shape. A panic from a
// misbehaving strategy store is treated the same as a denial-free pass:
// fail open.
func (m *Manager) Check(r *http.Request, cost int64, opts domain.RateLimitOptions, now time.Time) (result domain.RateLimitResult, allowed bool) {
	extractor := m.extractors[opts.By]
	if extractor == nil {
		extractor = extractClientKey
	}
	key := extractor(r)

	if m.isExempt(key) {
		return exemptResult, true
	}

	strategy := m.resolveStrategy(opts.Strategy)
	if strategy == nil {
		return exemptResult, true
	}

	result = m.safeAllow(strategy, key, cost, now)
	return result, result.Allowed
}

// resolveStrategy looks up name, falling back to the first strategy
// configured (in config order) when name is empty.
func (m *Manager) resolveStrategy(name string) domain.RateLimiter {
	if name != "" {
		return m.strategies[name]
	}
	if len(m.order) == 0 {
		return nil
	}
	return m.strategies[m.order[0]]
}

func (m *Manager) safeAllow(strategy domain.RateLimiter, key string, cost int64, now time.Time) (result domain.RateLimitResult) {
	defer func() {
		if r := recover(); r != nil {
			if m.metrics != nil {
				m.metrics.IncrCounter(storeErrorMetric, map[string]string{"strategy": strategy.Name()}, 1)
			}
			if m.logger != nil {
				m.logger.Warn("rate limit strategy failed, failing open", "strategy", strategy.Name(), "error", r)
			}
			result = exemptResult
		}
	}()

	return strategy.Allow(key, cost, now)
}

// isExempt reports whether key is exempt from all rate limiting: Include
// enumerates exempt patterns (or "*" for everyone), Exclude carves out
// exceptions to that exemption.
func (m *Manager) isExempt(key string) bool {
	if m.exemptions == nil || m.exemptions.IsEmpty() {
		return false
	}
	if matchesAny(key, m.exemptions.Exclude) {
		return false
	}
	if m.exemptions.HasIncludeAll() {
		return true
	}
	return matchesAny(key, m.exemptions.Include)
}

func matchesAny(key string, patterns []string) bool {
	for _, p := range patterns {
		if pattern.MatchesGlob(key, p) {
			return true
		}
	}
	return false
}

// WriteHeaders sets the X-RateLimit-* headers spec.md 4.J describes.
func WriteHeaders(w http.ResponseWriter, result domain.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if result.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
	}
}

// extractClientKey follows cf-connecting-ip -> x-forwarded-for -> x-real-ip
// -> the request's remote address, falling back to 127.0.0.1 (spec.md 4.J).
func extractClientKey(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return "127.0.0.1"
}
