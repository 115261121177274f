package health

import (
	"context"
	"testing"
)

func benchmarkRun(b *testing.B, cfg AggregatorConfig) {
	agg := NewAggregator(cfg)
	agg.Register(fixed("index", Healthy("ok")))
	agg.Register(fixed("cache", Healthy("ok")))
	agg.Register(fixed("quota", Degraded("low")))
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if r := agg.Run(ctx); r.Status != StatusDegraded {
			b.Fatalf("Run() status = %v", r.Status)
		}
	}
}

func BenchmarkAggregator_Run(b *testing.B) {
	b.Run("parallel", func(b *testing.B) { benchmarkRun(b, AggregatorConfig{}) })
	b.Run("sequential", func(b *testing.B) { benchmarkRun(b, AggregatorConfig{Sequential: true}) })
}
