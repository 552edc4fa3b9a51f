package logger

import (
	"log/slog"

	"github.com/thushan/edge-utils/internal/core/domain"
)

// StyledLogger is the common surface shared by ColorStyledLogger,
// PlainStyledLogger and PrettyStyledLogger. Callers that only need logging
// (the balancer, health checker, rate limiter) depend on this interface so
// the concrete rendering can be swapped per Config.Theme/PrettyLogs without
// touching call sites.
type StyledLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	InfoWithCount(msg string, count int, args ...any)
	InfoWithEndpoint(msg string, endpoint string, args ...any)
	InfoWithHealthCheck(msg string, endpoint string, args ...any)
	InfoWithNumbers(msg string, numbers ...int64)
	WarnWithEndpoint(msg string, endpoint string, args ...any)
	ErrorWithEndpoint(msg string, endpoint string, args ...any)
	InfoHealthy(msg string, endpoint string, args ...any)
	InfoHealthStatus(msg string, name string, status domain.EndpointStatus, args ...any)

	GetUnderlying() *slog.Logger
	WithAttrs(attrs ...slog.Attr) StyledLogger
	With(args ...any) StyledLogger
}

// LogContext carries a dual-destination log line: UserArgs is what goes to
// the console/CLI output, DetailedArgs is appended only when the line is
// also routed to the detailed file log (see logWithContext).
type LogContext struct {
	UserArgs     []any
	DetailedArgs []any
}
