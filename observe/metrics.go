package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Lookup layers reported by RecordLookup.
const (
	LayerMemory = "memory"
	LayerDisk   = "disk"
	LayerOrigin = "origin"
)

// Metrics records cache lookups and upstream fetches.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records which layer served a cached call.
	RecordLookup(ctx context.Context, meta CallMeta, layer string, duration time.Duration, err error)

	// RecordFetch records one upstream request.
	RecordFetch(ctx context.Context, meta CallMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	lookups      metric.Int64Counter
	lookupErrors metric.Int64Counter
	lookupHist   metric.Float64Histogram
	fetches      metric.Int64Counter
	fetchErrors  metric.Int64Counter
	fetchHist    metric.Float64Histogram
}

// NewMetrics creates Metrics backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	var m metricsImpl
	var err error

	if m.lookups, err = meter.Int64Counter(
		"cache.lookup.total",
		metric.WithDescription("Cached calls by serving layer"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.lookupErrors, err = meter.Int64Counter(
		"cache.lookup.errors",
		metric.WithDescription("Cached calls that returned an error"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.lookupHist, err = meter.Float64Histogram(
		"cache.lookup.duration_ms",
		metric.WithDescription("Cached call duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.fetches, err = meter.Int64Counter(
		"upstream.fetch.total",
		metric.WithDescription("Upstream provider requests"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.fetchErrors, err = meter.Int64Counter(
		"upstream.fetch.errors",
		metric.WithDescription("Upstream provider request failures"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.fetchHist, err = meter.Float64Histogram(
		"upstream.fetch.duration_ms",
		metric.WithDescription("Upstream request duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

func callAttrs(meta CallMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("call.id", meta.ID()),
		attribute.String("call.operation", meta.Operation),
	}
	if meta.Provider != "" {
		attrs = append(attrs, attribute.String("call.provider", meta.Provider))
	}
	return attrs
}

func (m *metricsImpl) RecordLookup(ctx context.Context, meta CallMeta, layer string, duration time.Duration, err error) {
	opt := metric.WithAttributes(append(callAttrs(meta), attribute.String("cache.layer", layer))...)
	m.lookups.Add(ctx, 1, opt)
	if err != nil {
		m.lookupErrors.Add(ctx, 1, opt)
	}
	m.lookupHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordFetch(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(callAttrs(meta)...)
	m.fetches.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
	m.fetchHist.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) RecordLookup(context.Context, CallMeta, string, time.Duration, error) {}
func (nopMetrics) RecordFetch(context.Context, CallMeta, time.Duration, error)         {}
