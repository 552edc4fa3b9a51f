package ports

import (
	"context"

	"github.com/thushan/edge-utils/internal/core/domain"
)

// SpanExporter accepts sampled spans for shipment (stdout or OTLP).
type SpanExporter interface {
	ExportSpans(ctx context.Context, spans []domain.Span) error
}

// Tracer is the W3C trace-context surface (spec.md 4.L): extract/inject
// round-trip, plus span lifecycle.
type Tracer interface {
	Extract(traceparent string) (domain.TraceContext, bool)
	Inject(tc domain.TraceContext) string

	StartSpan(ctx context.Context, name string) (context.Context, *domain.Span)
	EndSpan(span *domain.Span)
	AddEvent(span *domain.Span, name string, attrs map[string]any)
	SetAttributes(span *domain.Span, attrs map[string]any)

	SetExporter(exporter SpanExporter)
}
