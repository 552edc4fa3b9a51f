package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/thushan/edge-utils/internal/config"
	"github.com/thushan/edge-utils/internal/core/domain"
	"github.com/thushan/edge-utils/internal/logger"
)

func testLogger() logger.StyledLogger {
	log, _, _ := logger.New(&logger.Config{Level: "error", Theme: "default"})
	return logger.NewPlainStyledLogger(log)
}

func TestManager_DeniesAfterStrategyLimit(t *testing.T) {
	cfg := config.RateLimitSetConfig{
		Strategies: []config.RateLimitStrategyConfig{
			{Name: "default", Type: "token_bucket", Capacity: 1, RefillRatePerSecond: 0.001},
		},
	}
	manager := NewManager(cfg, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	now := time.Now()

	if _, allowed := manager.Check(req, 1, domain.RateLimitOptions{}, now); !allowed {
		t.Fatal("expected first request to be allowed")
	}
	if _, allowed := manager.Check(req, 1, domain.RateLimitOptions{}, now); allowed {
		t.Error("expected second request to be denied")
	}
}

func TestManager_ExemptKeyBypassesStrategies(t *testing.T) {
	cfg := config.RateLimitSetConfig{
		Strategies: []config.RateLimitStrategyConfig{
			{Name: "default", Type: "token_bucket", Capacity: 1, RefillRatePerSecond: 0.001},
		},
		Exemptions: config.FilterPatternConfig{Include: []string{"10.0.*"}},
	}
	manager := NewManager(cfg, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	now := time.Now()

	for i := 0; i < 5; i++ {
		result, allowed := manager.Check(req, 1, domain.RateLimitOptions{}, now)
		if !allowed {
			t.Fatalf("expected exempt client to always be allowed, failed on request %d", i)
		}
		if result.Limit != -1 || result.Remaining != -1 || !result.ResetAt.Equal(time.Unix(0, 0)) {
			t.Errorf("expected exempt result {limit:-1, remaining:-1, resetTime:0}, got %+v", result)
		}
	}
}

func TestManager_DispatchesToNamedStrategy(t *testing.T) {
	cfg := config.RateLimitSetConfig{
		Strategies: []config.RateLimitStrategyConfig{
			{Name: "roomy", Type: "token_bucket", Capacity: 100, RefillRatePerSecond: 0.001},
			{Name: "tight", Type: "token_bucket", Capacity: 1, RefillRatePerSecond: 0.001},
		},
	}
	manager := NewManager(cfg, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	now := time.Now()

	if _, allowed := manager.Check(req, 1, domain.RateLimitOptions{Strategy: "tight"}, now); !allowed {
		t.Fatal("expected first request against the tight strategy to be allowed")
	}
	if _, allowed := manager.Check(req, 1, domain.RateLimitOptions{Strategy: "tight"}, now); allowed {
		t.Error("expected second request against the tight strategy to be denied")
	}
	if _, allowed := manager.Check(req, 1, domain.RateLimitOptions{Strategy: "roomy"}, now); !allowed {
		t.Error("expected the roomy strategy to remain unaffected by the tight strategy's denial")
	}
}

func TestManager_HonoursCostAcrossChecks(t *testing.T) {
	cfg := config.RateLimitSetConfig{
		Strategies: []config.RateLimitStrategyConfig{
			{Name: "default", Type: "token_bucket", Capacity: 100, RefillRatePerSecond: 0.001},
		},
	}
	manager := NewManager(cfg, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	now := time.Now()

	for i := 0; i < 9; i++ {
		if _, allowed := manager.Check(req, 10, domain.RateLimitOptions{}, now); !allowed {
			t.Fatalf("expected cost-10 request %d to be allowed", i)
		}
	}
	// 9*10 = 90 consumed out of 100, leaving 10: a cost-5 request still fits.
	result, allowed := manager.Check(req, 5, domain.RateLimitOptions{}, now)
	if !allowed {
		t.Fatalf("expected the cost-5 request against the remaining 10 tokens to be allowed, got %+v", result)
	}
	if result.Remaining != 5 {
		t.Errorf("expected 5 tokens remaining after a cost-5 draw against 10, got %d", result.Remaining)
	}
}

func TestExtractClientKey_PrefersCFConnectingIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	req.Header.Set("CF-Connecting-IP", "203.0.113.9")

	if key := extractClientKey(req); key != "203.0.113.9" {
		t.Errorf("expected CF-Connecting-IP to take precedence, got %q", key)
	}
}
