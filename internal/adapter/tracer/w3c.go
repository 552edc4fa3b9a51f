package tracer

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/thushan/edge-utils/internal/core/domain"
	"github.com/thushan/edge-utils/internal/core/ports"
	"github.com/thushan/edge-utils/pkg/eventbus"
	"github.com/thushan/edge-utils/pkg/pool"
)

const (
	traceparentVersion = "00"
	sampledFlag        = 0x01
)

type spanContextKey struct{}
type traceContextKey struct{}

// spanPool recycles *domain.Span allocations across the request hot path:
// StartSpan borrows one, EndSpan returns it once its value has been copied
// onto the export bus.
var spanPool = pool.NewRecycler(func() *domain.Span { return &domain.Span{} })

// W3CTracer implements ports.Tracer: W3C traceparent extraction/injection
// plus span lifecycle (spec.md 4.L). Sampling is a simple uniform draw
// against SampleRate; once a trace is sampled in, every span within it is
// sampled (head-based sampling, decided at StartSpan of the root).
//
// EndSpan never calls the exporter inline: sampled spans are published onto
// an internal event bus and drained by Run, so a slow OTLP collector never
// adds latency to the request that produced the span.
type W3CTracer struct {
	sampleRate float64

	mu       sync.Mutex
	exporter ports.SpanExporter

	bus *eventbus.Broadcaster[domain.Span]
}

func NewW3CTracer(sampleRate float64) *W3CTracer {
	if sampleRate < 0 {
		sampleRate = 0
	}
	if sampleRate > 1 {
		sampleRate = 1
	}
	return &W3CTracer{sampleRate: sampleRate, bus: eventbus.New[domain.Span]()}
}

// Run drains sampled spans to whatever exporter is configured until ctx is
// cancelled. Call it once per tracer, after SetExporter.
func (t *W3CTracer) Run(ctx context.Context) {
	ch, cleanup := t.bus.Subscribe(ctx)
	defer cleanup()
	for {
		select {
		case <-ctx.Done():
			return
		case span, ok := <-ch:
			if !ok {
				return
			}
			t.mu.Lock()
			exporter := t.exporter
			t.mu.Unlock()
			if exporter != nil {
				_ = exporter.ExportSpans(ctx, []domain.Span{span})
			}
		}
	}
}

func (t *W3CTracer) SetExporter(exporter ports.SpanExporter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exporter = exporter
}

// Extract parses a traceparent header of the form
// version-traceID(32 hex)-parentID(16 hex)-flags(2 hex).
func (t *W3CTracer) Extract(traceparent string) (domain.TraceContext, bool) {
	parts := strings.Split(traceparent, "-")
	if len(parts) != 4 {
		return domain.TraceContext{}, false
	}
	if parts[0] != traceparentVersion || len(parts[1]) != 32 || len(parts[2]) != 16 || len(parts[3]) != 2 {
		return domain.TraceContext{}, false
	}

	traceID, err := hex.DecodeString(parts[1])
	if err != nil || allZero(traceID) {
		return domain.TraceContext{}, false
	}
	spanID, err := hex.DecodeString(parts[2])
	if err != nil || allZero(spanID) {
		return domain.TraceContext{}, false
	}
	flags, err := hex.DecodeString(parts[3])
	if err != nil {
		return domain.TraceContext{}, false
	}

	var tc domain.TraceContext
	copy(tc.TraceID[:], traceID)
	copy(tc.SpanID[:], spanID)
	tc.Sampled = flags[0]&sampledFlag != 0
	return tc, true
}

// Inject renders a TraceContext back into a traceparent header value.
func (t *W3CTracer) Inject(tc domain.TraceContext) string {
	flags := byte(0)
	if tc.Sampled {
		flags = sampledFlag
	}
	return strings.Join([]string{
		traceparentVersion,
		hex.EncodeToString(tc.TraceID[:]),
		hex.EncodeToString(tc.SpanID[:]),
		hex.EncodeToString([]byte{flags}),
	}, "-")
}

// WithTraceContext seeds ctx with an extracted incoming TraceContext so the
// next StartSpan call treats it as the span's parent.
func WithTraceContext(ctx context.Context, tc domain.TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}

func (t *W3CTracer) StartSpan(ctx context.Context, name string) (context.Context, *domain.Span) {
	var traceID [16]byte
	var parentSpanID [8]byte
	sampled := t.shouldSample()

	if parent, ok := ctx.Value(spanContextKey{}).(*domain.Span); ok && parent != nil {
		traceID = parent.TraceID
		parentSpanID = parent.SpanID
		sampled = parent.Sampled
	} else if tc, ok := ctx.Value(traceContextKey{}).(domain.TraceContext); ok {
		traceID = tc.TraceID
		parentSpanID = tc.SpanID
		sampled = tc.Sampled
	} else {
		_, _ = rand.Read(traceID[:])
	}

	var spanID [8]byte
	_, _ = rand.Read(spanID[:])

	span := spanPool.Get()
	span.TraceID = traceID
	span.SpanID = spanID
	span.ParentSpanID = parentSpanID
	span.Name = name
	span.StartTime = time.Now()
	span.Attrs = make(map[string]any)
	span.Sampled = sampled

	return context.WithValue(ctx, spanContextKey{}, span), span
}

// EndSpan stamps the end time, publishes a copy onto the export bus if the
// span was sampled, then returns span to the pool. Callers must not touch
// span after this returns.
func (t *W3CTracer) EndSpan(span *domain.Span) {
	if span == nil {
		return
	}
	span.EndTime = time.Now()

	if span.Sampled {
		t.bus.Publish(*span)
	}
	spanPool.Put(span)
}

func (t *W3CTracer) AddEvent(span *domain.Span, name string, attrs map[string]any) {
	if span == nil {
		return
	}
	span.Events = append(span.Events, domain.SpanEvent{Name: name, Timestamp: time.Now(), Attrs: attrs})
}

func (t *W3CTracer) SetAttributes(span *domain.Span, attrs map[string]any) {
	if span == nil {
		return
	}
	if span.Attrs == nil {
		span.Attrs = make(map[string]any)
	}
	for k, v := range attrs {
		span.Attrs[k] = v
	}
}

func (t *W3CTracer) shouldSample() bool {
	if t.sampleRate >= 1 {
		return true
	}
	if t.sampleRate <= 0 {
		return false
	}
	var b [8]byte
	_, _ = rand.Read(b[:])
	draw := float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
	return draw < t.sampleRate
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
