package stats

/*
	Stats Collector - Centralised Stats Collection

	Collector centralises the connection and security counters the balancer
	and the security validators report into. Instead of each component
	doing its own thing, everything reports here so the operator can see
	what's happening system-wide.

	Thread-safe for high concurrency since this gets hit on every request.
	Once more than MaxTrackedEndpoints URLs are tracked, idle ones (zero
	active connections) are dropped, at most once per CleanupInterval, so
	long-running processes don't leak memory.
*/

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/thushan/edge-utils/internal/core/constants"
	"github.com/thushan/edge-utils/internal/core/ports"
	"github.com/thushan/edge-utils/internal/logger"
)

const (
	// MaxTrackedEndpoints and EndpointTTL are kept conservative; most
	// deployments track 10-20 endpoints.
	MaxTrackedEndpoints = 50
	EndpointTTL         = 1 * time.Hour
	CleanupInterval     = 5 * time.Minute
)

// Collector implements ports.StatsCollector: per-endpoint active connection
// counts plus the security-violation counters the rate-limit/size-limit
// validators report.
type Collector struct {
	logger logger.StyledLogger

	uniqueRateLimitedIPs map[string]int64
	securityMu           sync.RWMutex

	connections *xsync.Map[string, *int64]

	rateLimitViolations *xsync.Counter
	sizeLimitViolations *xsync.Counter

	lastCleanup int64
	cleanupMu   sync.Mutex
}

func NewCollector(logger logger.StyledLogger) *Collector {
	return &Collector{
		uniqueRateLimitedIPs: make(map[string]int64),
		logger:               logger,
		connections:          xsync.NewMap[string, *int64](),
		lastCleanup:          time.Now().UnixNano(),
		rateLimitViolations:  xsync.NewCounter(),
		sizeLimitViolations:  xsync.NewCounter(),
	}
}

// RecordConnection adjusts the active connection count for url by delta,
// floored at zero.
func (c *Collector) RecordConnection(url string, delta int) {
	counter, _ := c.connections.LoadOrCompute(url, func() (*int64, bool) {
		var v int64
		return &v, false
	})

	if delta > 0 {
		atomic.AddInt64(counter, int64(delta))
		return
	}
	for {
		current := atomic.LoadInt64(counter)
		next := current + int64(delta)
		if next < 0 {
			next = 0
		}
		if atomic.CompareAndSwapInt64(counter, current, next) {
			break
		}
	}
	c.tryCleanup(time.Now().UnixNano())
}

func (c *Collector) GetConnectionStats() map[string]int64 {
	stats := make(map[string]int64)
	c.connections.Range(func(url string, counter *int64) bool {
		stats[url] = atomic.LoadInt64(counter)
		return true
	})
	return stats
}

func (c *Collector) RecordSecurityViolation(violation ports.SecurityViolation) {
	switch violation.ViolationType {
	case constants.ViolationRateLimit:
		c.rateLimitViolations.Inc()
		c.recordRateLimitedIP(violation.ClientID)
	case constants.ViolationSizeLimit:
		c.sizeLimitViolations.Inc()
	}
}

func (c *Collector) GetSecurityStats() ports.SecurityStats {
	c.securityMu.RLock()
	uniqueIPs := len(c.uniqueRateLimitedIPs)
	c.securityMu.RUnlock()

	return ports.SecurityStats{
		RateLimitViolations:  c.rateLimitViolations.Value(),
		SizeLimitViolations:  c.sizeLimitViolations.Value(),
		UniqueRateLimitedIPs: uniqueIPs,
	}
}

func (c *Collector) recordRateLimitedIP(clientIP string) {
	now := time.Now().UnixNano()
	cutoff := now - int64(time.Hour)

	c.securityMu.Lock()
	c.uniqueRateLimitedIPs[clientIP] = now
	for ip, ts := range c.uniqueRateLimitedIPs {
		if ts < cutoff {
			delete(c.uniqueRateLimitedIPs, ip)
		}
	}
	c.securityMu.Unlock()
}

func (c *Collector) tryCleanup(now int64) {
	c.cleanupMu.Lock()
	defer c.cleanupMu.Unlock()

	if now-atomic.LoadInt64(&c.lastCleanup) < int64(CleanupInterval) {
		return
	}
	c.cleanup()
	atomic.StoreInt64(&c.lastCleanup, now)
}

func (c *Collector) cleanup() {
	var urls []string
	c.connections.Range(func(url string, counter *int64) bool {
		urls = append(urls, url)
		return true
	})

	if len(urls) <= MaxTrackedEndpoints {
		return
	}

	type idleCount struct {
		url   string
		value int64
	}
	idle := make([]idleCount, 0, len(urls))
	for _, url := range urls {
		if counter, ok := c.connections.Load(url); ok && atomic.LoadInt64(counter) == 0 {
			idle = append(idle, idleCount{url: url})
		}
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].url < idle[j].url })

	remove := len(urls) - MaxTrackedEndpoints
	for i := 0; i < remove && i < len(idle); i++ {
		c.connections.Delete(idle[i].url)
	}
	if remove > 0 {
		c.logger.Debug("Cleaned up idle connection stats", "removed", remove, "remaining", len(urls)-remove)
	}
}
