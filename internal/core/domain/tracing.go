package domain

import "time"

// SpanEvent is a timestamped annotation attached to a Span.
type SpanEvent struct {
	Name      string
	Timestamp time.Time
	Attrs     map[string]any
}

// TraceContext is the decoded form of a W3C traceparent header
// (spec.md 4.L): version-traceID(32 hex)-parentID(16 hex)-flags(2 hex).
type TraceContext struct {
	TraceID      [16]byte
	SpanID       [8]byte
	Sampled      bool
}

// Span is one unit of work in a trace (spec.md 3's Span).
type Span struct {
	TraceID      [16]byte
	SpanID       [8]byte
	ParentSpanID [8]byte
	Name         string
	StartTime    time.Time
	EndTime      time.Time
	Attrs        map[string]any
	Events       []SpanEvent
	Sampled      bool
}

func (s *Span) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Reset zeroes a Span so it's safe to return to a pool.Recycler[*Span].
func (s *Span) Reset() {
	*s = Span{}
}
