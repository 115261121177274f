package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (*Tracer, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return NewTracer(tp.Tracer("test")), sr
}

func TestCallMeta_Names(t *testing.T) {
	tests := []struct {
		meta     CallMeta
		id, span string
	}{
		{CallMeta{Provider: "opendart", Operation: "company"}, "opendart.company", "fetch.opendart.company"},
		{CallMeta{Operation: "corpCode"}, "corpCode", "fetch.corpCode"},
	}
	for _, tt := range tests {
		if got := tt.meta.ID(); got != tt.id {
			t.Errorf("ID() = %q, want %q", got, tt.id)
		}
		if got := tt.meta.SpanName(); got != tt.span {
			t.Errorf("SpanName() = %q, want %q", got, tt.span)
		}
	}
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracer_SuccessSpan(t *testing.T) {
	tracer, sr := newRecordingTracer()
	meta := CallMeta{Provider: "opendart", Operation: "company", Key: "opendart:company:00126380"}

	_, span := tracer.Start(context.Background(), meta)
	tracer.End(span, nil)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "fetch.opendart.company" {
		t.Errorf("unexpected span name %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", spans[0].Status().Code)
	}
	if v, ok := spanAttr(spans[0], "cache.key"); !ok || v.AsString() != meta.Key {
		t.Errorf("expected cache.key attribute %q, got %v", meta.Key, v.AsString())
	}
}

func TestTracer_ErrorSpan(t *testing.T) {
	tracer, sr := newRecordingTracer()

	_, span := tracer.Start(context.Background(), CallMeta{Operation: "corpCode"})
	tracer.End(span, errors.New("status 500"))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected Error status, got %v", spans[0].Status().Code)
	}
	if v, ok := spanAttr(spans[0], "call.error"); !ok || !v.AsBool() {
		t.Error("expected call.error=true")
	}
}
