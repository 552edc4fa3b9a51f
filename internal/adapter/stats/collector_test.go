package stats

import (
	"testing"
	"time"

	"github.com/thushan/edge-utils/internal/core/constants"
	"github.com/thushan/edge-utils/internal/core/ports"
	"github.com/thushan/edge-utils/internal/logger"
)

func createTestLogger() logger.StyledLogger {
	loggerCfg := &logger.Config{Level: "error", Theme: "default"}
	log, _, _ := logger.New(loggerCfg)
	return logger.NewPlainStyledLogger(log)
}

func TestCollector_RecordConnection(t *testing.T) {
	collector := NewCollector(createTestLogger())

	collector.RecordConnection("http://localhost:8080", 1)
	collector.RecordConnection("http://localhost:8080", 1)
	collector.RecordConnection("http://localhost:8080", -1)

	stats := collector.GetConnectionStats()
	if stats["http://localhost:8080"] != 1 {
		t.Errorf("expected 1 active connection, got %d", stats["http://localhost:8080"])
	}
}

func TestCollector_RecordConnection_FlooredAtZero(t *testing.T) {
	collector := NewCollector(createTestLogger())

	collector.RecordConnection("http://localhost:8080", -1)

	stats := collector.GetConnectionStats()
	if stats["http://localhost:8080"] != 0 {
		t.Errorf("expected connection count floored at 0, got %d", stats["http://localhost:8080"])
	}
}

func TestCollector_RecordSecurityViolation(t *testing.T) {
	collector := NewCollector(createTestLogger())

	collector.RecordSecurityViolation(ports.SecurityViolation{
		ClientID:      "1.2.3.4",
		ViolationType: constants.ViolationRateLimit,
		Timestamp:     time.Now(),
	})
	collector.RecordSecurityViolation(ports.SecurityViolation{
		ClientID:      "5.6.7.8",
		ViolationType: constants.ViolationSizeLimit,
		Timestamp:     time.Now(),
	})

	stats := collector.GetSecurityStats()
	if stats.RateLimitViolations != 1 {
		t.Errorf("expected 1 rate limit violation, got %d", stats.RateLimitViolations)
	}
	if stats.SizeLimitViolations != 1 {
		t.Errorf("expected 1 size limit violation, got %d", stats.SizeLimitViolations)
	}
	if stats.UniqueRateLimitedIPs != 1 {
		t.Errorf("expected 1 unique rate limited IP, got %d", stats.UniqueRateLimitedIPs)
	}
}
