package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusAdapter exposes the in-process Collector's series on a
// /metrics scrape endpoint, mirroring counters/gauges/histograms into
// client_golang vectors lazily as new tag combinations appear (SPEC_FULL.md
// 4.O). The in-process Collector stays the single source of truth for
// GetCounter/GetHistogramPercentiles; this adapter only shadows it for
// Prometheus' pull model.
type PrometheusAdapter struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

func NewPrometheusAdapter() *PrometheusAdapter {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return &PrometheusAdapter{
		registry:   registry,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func (p *PrometheusAdapter) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusAdapter) IncrCounter(name string, tags map[string]string, delta float64) {
	vec := p.counterVec(name, tags)
	vec.With(toLabels(tags)).Add(delta)
}

func (p *PrometheusAdapter) SetGauge(name string, tags map[string]string, value float64) {
	vec := p.gaugeVec(name, tags)
	vec.With(toLabels(tags)).Set(value)
}

func (p *PrometheusAdapter) ObserveHistogram(name string, tags map[string]string, value float64) {
	vec := p.histogramVec(name, tags)
	vec.With(toLabels(tags)).Observe(value)
}

func (p *PrometheusAdapter) counterVec(name string, tags map[string]string) *prometheus.CounterVec {
	p.mu.Lock()
	defer p.mu.Unlock()

	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, labelNames(tags))
		p.registry.MustRegister(vec)
		p.counters[name] = vec
	}
	return vec
}

func (p *PrometheusAdapter) gaugeVec(name string, tags map[string]string) *prometheus.GaugeVec {
	p.mu.Lock()
	defer p.mu.Unlock()

	vec, ok := p.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name}, labelNames(tags))
		p.registry.MustRegister(vec)
		p.gauges[name] = vec
	}
	return vec
}

func (p *PrometheusAdapter) histogramVec(name string, tags map[string]string) *prometheus.HistogramVec {
	p.mu.Lock()
	defer p.mu.Unlock()

	vec, ok := p.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name}, labelNames(tags))
		p.registry.MustRegister(vec)
		p.histograms[name] = vec
	}
	return vec
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, k)
	}
	return names
}

func toLabels(tags map[string]string) prometheus.Labels {
	return prometheus.Labels(tags)
}

// FanOut wraps the in-process Collector (the single queryable source of
// truth for GetCounter/GetHistogramPercentiles) and mirrors every write
// into a PrometheusAdapter as well, so both the in-process API and the
// /metrics scrape endpoint stay in sync off one call site.
type FanOut struct {
	*Collector
	prom *PrometheusAdapter
}

func NewFanOut(primary *Collector, prom *PrometheusAdapter) *FanOut {
	return &FanOut{Collector: primary, prom: prom}
}

func (f *FanOut) IncrCounter(name string, tags map[string]string, delta float64) {
	f.Collector.IncrCounter(name, tags, delta)
	f.prom.IncrCounter(name, tags, delta)
}

func (f *FanOut) SetGauge(name string, tags map[string]string, value float64) {
	f.Collector.SetGauge(name, tags, value)
	f.prom.SetGauge(name, tags, value)
}

func (f *FanOut) ObserveHistogram(name string, tags map[string]string, value float64) {
	f.Collector.ObserveHistogram(name, tags, value)
	f.prom.ObserveHistogram(name, tags, value)
}
