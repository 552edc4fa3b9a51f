package ports

import "time"

// HistogramPercentiles is the result of extracting a histogram's
// distribution at spec.md 4.K's default percentile set.
type HistogramPercentiles struct {
	P50  float64
	P95  float64
	P99  float64
	P999 float64
	Count int64
	Sum   float64
}

// MetricsCollector is the in-process sink spec.md 4.K describes: counters,
// gauges, and histograms keyed by name{sorted k=v tags}, with retention-based
// eviction and percentile extraction.
type MetricsCollector interface {
	IncrCounter(name string, tags map[string]string, delta float64)
	SetGauge(name string, tags map[string]string, value float64)
	ObserveHistogram(name string, tags map[string]string, value float64)

	GetCounter(name string, tags map[string]string) float64
	GetGauge(name string, tags map[string]string) float64
	GetHistogramPercentiles(name string, tags map[string]string) HistogramPercentiles

	// Flush evicts series untouched for longer than retention.
	Flush(now time.Time, retention time.Duration)
}
