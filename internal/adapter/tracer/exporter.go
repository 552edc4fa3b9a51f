package tracer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/thushan/edge-utils/internal/core/domain"
)

type spanRecord struct {
	TraceID    string             `json:"trace_id"`
	SpanID     string             `json:"span_id"`
	ParentID   string             `json:"parent_span_id,omitempty"`
	Name       string             `json:"name"`
	StartTime  string             `json:"start_time"`
	EndTime    string             `json:"end_time"`
	DurationMs float64            `json:"duration_ms"`
	Attrs      map[string]any     `json:"attributes,omitempty"`
	Events     []domain.SpanEvent `json:"events,omitempty"`
}

// StdoutExporter writes each sampled span as a JSON line, the same shape
// the otel SDK's stdouttrace exporter produces, but carrying our own Span
// model instead of a sdktrace.ReadOnlySpan.
type StdoutExporter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewStdoutExporter(w io.Writer) *StdoutExporter {
	return &StdoutExporter{w: w}
}

func (e *StdoutExporter) ExportSpans(ctx context.Context, spans []domain.Span) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	enc := json.NewEncoder(e.w)
	for _, span := range spans {
		record := spanRecord{
			TraceID:    hex.EncodeToString(span.TraceID[:]),
			SpanID:     hex.EncodeToString(span.SpanID[:]),
			Name:       span.Name,
			StartTime:  span.StartTime.Format(time.RFC3339Nano),
			EndTime:    span.EndTime.Format(time.RFC3339Nano),
			DurationMs: float64(span.Duration().Microseconds()) / 1000,
			Attrs:      span.Attrs,
			Events:     span.Events,
		}
		if span.ParentSpanID != ([8]byte{}) {
			record.ParentID = hex.EncodeToString(span.ParentSpanID[:])
		}
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return nil
}

// OTLPExporter ships spans to an OTLP/gRPC collector. It builds the wire
// protobuf directly through otlptrace.Client rather than going through the
// SDK's TracerProvider: domain.Span is our own model, not something that
// can implement the SDK's sealed sdktrace.ReadOnlySpan.
type OTLPExporter struct {
	client      otlptrace.Client
	serviceName string
}

func NewOTLPExporter(ctx context.Context, endpoint, serviceName string) (*OTLPExporter, error) {
	client := otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err := client.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting otlp trace client: %w", err)
	}
	return &OTLPExporter{client: client, serviceName: serviceName}, nil
}

func (e *OTLPExporter) Close(ctx context.Context) error {
	return e.client.Stop(ctx)
}

func (e *OTLPExporter) ExportSpans(ctx context.Context, spans []domain.Span) error {
	if len(spans) == 0 {
		return nil
	}

	pbSpans := make([]*tracepb.Span, 0, len(spans))
	for _, span := range spans {
		pbSpans = append(pbSpans, toProtoSpan(span))
	}

	resourceSpans := []*tracepb.ResourceSpans{
		{
			Resource: &resourcepb.Resource{
				Attributes: []*commonpb.KeyValue{stringAttr("service.name", e.serviceName)},
			},
			ScopeSpans: []*tracepb.ScopeSpans{{Spans: pbSpans}},
		},
	}

	return e.client.UploadTraces(ctx, resourceSpans)
}

func toProtoSpan(span domain.Span) *tracepb.Span {
	pb := &tracepb.Span{
		TraceId:           span.TraceID[:],
		SpanId:            span.SpanID[:],
		Name:              span.Name,
		Kind:              tracepb.Span_SPAN_KIND_SERVER,
		StartTimeUnixNano: uint64(span.StartTime.UnixNano()),
		EndTimeUnixNano:   uint64(span.EndTime.UnixNano()),
	}
	if span.ParentSpanID != ([8]byte{}) {
		pb.ParentSpanId = span.ParentSpanID[:]
	}
	for k, v := range span.Attrs {
		pb.Attributes = append(pb.Attributes, anyAttr(k, v))
	}
	for _, event := range span.Events {
		evt := &tracepb.Span_Event{
			Name:         event.Name,
			TimeUnixNano: uint64(event.Timestamp.UnixNano()),
		}
		for k, v := range event.Attrs {
			evt.Attributes = append(evt.Attributes, anyAttr(k, v))
		}
		pb.Events = append(pb.Events, evt)
	}
	return pb
}

func stringAttr(key, value string) *commonpb.KeyValue {
	return &commonpb.KeyValue{Key: key, Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: value}}}
}

func anyAttr(key string, value any) *commonpb.KeyValue {
	switch v := value.(type) {
	case string:
		return stringAttr(key, v)
	case bool:
		return &commonpb.KeyValue{Key: key, Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: v}}}
	case int:
		return &commonpb.KeyValue{Key: key, Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: int64(v)}}}
	case int64:
		return &commonpb.KeyValue{Key: key, Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: v}}}
	case float64:
		return &commonpb.KeyValue{Key: key, Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: v}}}
	default:
		return stringAttr(key, fmt.Sprintf("%v", v))
	}
}
