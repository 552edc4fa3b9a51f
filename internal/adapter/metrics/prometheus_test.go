package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPrometheusAdapter_ExposesIncrementedCounter(t *testing.T) {
	p := NewPrometheusAdapter()
	p.IncrCounter("widgets_total", map[string]string{"colour": "red"}, 3)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "widgets_total") {
		t.Error("expected scrape output to contain the registered counter")
	}
}

func TestFanOut_MirrorsIntoBothSinks(t *testing.T) {
	primary := NewCollector()
	prom := NewPrometheusAdapter()
	fan := NewFanOut(primary, prom)

	fan.IncrCounter("combined_total", nil, 5)

	if got := primary.GetCounter("combined_total", nil); got != 5 {
		t.Errorf("expected in-process collector to record 5, got %v", got)
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	prom.Handler().ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "combined_total") {
		t.Error("expected prometheus adapter to also observe the write")
	}
}
