package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Tracer opens one client span per upstream call. It is safe for
// concurrent use.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer wraps t. A nil t yields a Tracer whose spans are dropped.
func NewTracer(t trace.Tracer) *Tracer {
	if t == nil {
		t = tracenoop.NewTracerProvider().Tracer("")
	}
	return &Tracer{tracer: t}
}

// Start opens a span named meta.SpanName carrying the call identity and,
// when set, the cache key.
func (t *Tracer) Start(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	attrs := callAttrs(meta)
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("cache.key", meta.Key))
	}
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// End closes span with an Ok status, or an Error status and a recorded
// event when err is non-nil.
func (t *Tracer) End(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Bool("call.error", false))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Bool("call.error", true))
}
