package metrics

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thushan/edge-utils/internal/core/ports"
)

// seriesKey canonicalises name+tags into name{k=v,k=v} with tags sorted, so
// two IncrCounter calls with the same tags in different order hit the same
// series (spec.md 4.K).
func seriesKey(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	b.WriteByte('}')
	return b.String()
}

type counterSeries struct {
	value   float64
	touched time.Time
}

type gaugeSeries struct {
	value   float64
	touched time.Time
}

// histogramEntry is one retained observation, kept verbatim rather than
// folded into an estimator so percentiles can be computed exactly on demand.
type histogramEntry struct {
	value     float64
	timestamp time.Time
}

type histogramSeries struct {
	entries []histogramEntry
}

// Collector is the in-process metrics sink spec.md 4.K describes: counters,
// gauges and histograms keyed by name+sorted tags, with retention-based
// eviction. Histograms retain every observation's exact value and timestamp;
// percentiles are computed by sorting on demand rather than estimated from a
// bounded sample, and Flush evicts individual stale entries rather than
// whole series.
type Collector struct {
	mu         sync.Mutex
	counters   map[string]*counterSeries
	gauges     map[string]*gaugeSeries
	histograms map[string]*histogramSeries
}

func NewCollector() *Collector {
	return &Collector{
		counters:   make(map[string]*counterSeries),
		gauges:     make(map[string]*gaugeSeries),
		histograms: make(map[string]*histogramSeries),
	}
}

func (c *Collector) IncrCounter(name string, tags map[string]string, delta float64) {
	key := seriesKey(name, tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	series, ok := c.counters[key]
	if !ok {
		series = &counterSeries{}
		c.counters[key] = series
	}
	series.value += delta
	series.touched = time.Now()
}

func (c *Collector) SetGauge(name string, tags map[string]string, value float64) {
	key := seriesKey(name, tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	series, ok := c.gauges[key]
	if !ok {
		series = &gaugeSeries{}
		c.gauges[key] = series
	}
	series.value = value
	series.touched = time.Now()
}

func (c *Collector) ObserveHistogram(name string, tags map[string]string, value float64) {
	key := seriesKey(name, tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	series, ok := c.histograms[key]
	if !ok {
		series = &histogramSeries{}
		c.histograms[key] = series
	}
	series.entries = append(series.entries, histogramEntry{value: value, timestamp: time.Now()})
}

func (c *Collector) GetCounter(name string, tags map[string]string) float64 {
	key := seriesKey(name, tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	if series, ok := c.counters[key]; ok {
		return series.value
	}
	return 0
}

func (c *Collector) GetGauge(name string, tags map[string]string) float64 {
	key := seriesKey(name, tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	if series, ok := c.gauges[key]; ok {
		return series.value
	}
	return 0
}

// GetHistogramPercentiles sorts every retained observation and reports
// p50/p95/p99/p999 via nearest-rank selection, plus the exact count and sum.
func (c *Collector) GetHistogramPercentiles(name string, tags map[string]string) ports.HistogramPercentiles {
	key := seriesKey(name, tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	series, ok := c.histograms[key]
	if !ok || len(series.entries) == 0 {
		return ports.HistogramPercentiles{}
	}

	values := make([]float64, len(series.entries))
	var sum float64
	for i, e := range series.entries {
		values[i] = e.value
		sum += e.value
	}
	sort.Float64s(values)

	return ports.HistogramPercentiles{
		P50:   nearestRank(values, 0.50),
		P95:   nearestRank(values, 0.95),
		P99:   nearestRank(values, 0.99),
		P999:  nearestRank(values, 0.999),
		Count: int64(len(values)),
		Sum:   sum,
	}
}

// nearestRank returns the value at percentile p (0..1) from a slice already
// sorted ascending, using the nearest-rank method.
func nearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(n))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= n {
		rank = n - 1
	}
	return sorted[rank]
}

// Flush evicts counters and gauges untouched for longer than retention, and
// drops individual histogram observations older than retention rather than
// discarding an entire series because part of it is stale.
func (c *Collector) Flush(now time.Time, retention time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := now.Add(-retention)
	for key, series := range c.counters {
		if series.touched.Before(cutoff) {
			delete(c.counters, key)
		}
	}
	for key, series := range c.gauges {
		if series.touched.Before(cutoff) {
			delete(c.gauges, key)
		}
	}
	for key, series := range c.histograms {
		kept := series.entries[:0]
		for _, e := range series.entries {
			if !e.timestamp.Before(cutoff) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(c.histograms, key)
			continue
		}
		series.entries = kept
	}
}
