package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumByLayer(t *testing.T, m *metricdata.Metrics) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", m.Data)
	}
	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		layer, _ := dp.Attributes.Value(attribute.Key("cache.layer"))
		out[layer.AsString()] += dp.Value
	}
	return out
}

func TestMetrics_LookupCountsByLayer(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	meta := CallMeta{Provider: "opendart", Operation: "company"}

	m.RecordLookup(ctx, meta, LayerMemory, time.Millisecond, nil)
	m.RecordLookup(ctx, meta, LayerMemory, time.Millisecond, nil)
	m.RecordLookup(ctx, meta, LayerDisk, 2*time.Millisecond, nil)
	m.RecordLookup(ctx, meta, LayerOrigin, 80*time.Millisecond, nil)

	found := findMetric(collect(t, reader), "cache.lookup.total")
	if found == nil {
		t.Fatal("cache.lookup.total metric not found")
	}
	got := sumByLayer(t, found)
	if got[LayerMemory] != 2 || got[LayerDisk] != 1 || got[LayerOrigin] != 1 {
		t.Errorf("unexpected per-layer counts: %v", got)
	}
}

func TestMetrics_LookupErrors(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	meta := CallMeta{Provider: "opendart", Operation: "company"}

	m.RecordLookup(ctx, meta, LayerOrigin, time.Millisecond, errors.New("upstream down"))

	found := findMetric(collect(t, reader), "cache.lookup.errors")
	if found == nil {
		t.Fatal("cache.lookup.errors metric not found")
	}
	if got := sumByLayer(t, found)[LayerOrigin]; got != 1 {
		t.Errorf("expected 1 origin error, got %d", got)
	}
}

func TestMetrics_FetchDurationRecorded(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordFetch(context.Background(), CallMeta{Provider: "opendart", Operation: "corpCode"}, 150*time.Millisecond, nil)

	found := findMetric(collect(t, reader), "upstream.fetch.duration_ms")
	if found == nil {
		t.Fatal("upstream.fetch.duration_ms metric not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Fatalf("expected one histogram observation, got %+v", hist.DataPoints)
	}
	if hist.DataPoints[0].Sum != 150 {
		t.Errorf("expected sum 150ms, got %v", hist.DataPoints[0].Sum)
	}
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	m.RecordLookup(context.Background(), CallMeta{}, LayerMemory, 0, nil)
	m.RecordFetch(context.Background(), CallMeta{}, 0, errors.New("x"))
}
