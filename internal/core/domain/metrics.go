package domain

// MetricKind is the closed variant of series types spec.md 4.K tracks.
type MetricKind string

const (
	MetricCounter   MetricKind = "counter"
	MetricGauge     MetricKind = "gauge"
	MetricHistogram MetricKind = "histogram"
)

// TagPair is one key=value label on a MetricSeries.
type TagPair struct {
	Key   string
	Value string
}

// MetricSeries identifies one tracked series; its canonical key is
// name{k1=v1,k2=v2,...} with tags sorted by key (spec.md 3).
type MetricSeries struct {
	Name string
	Tags []TagPair
	Kind MetricKind
}

// DefaultPercentiles matches spec.md 4.K's default histogram extraction set.
var DefaultPercentiles = []float64{0.50, 0.95, 0.99, 0.999}
