// Package health reports whether the resolution index, the cache tiers and
// the upstream quota are usable.
//
// A Checker reports a Result with a Status of Healthy, Degraded or Unhealthy.
// An Aggregator runs a set of checkers with a shared timeout and folds their
// results into a Report whose status is the worst of its checks.
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewIndexChecker(index))
//	agg.Register(health.NewCacheChecker(tiers.Persistent, tiers.Memory))
//	agg.Register(health.NewQuotaChecker(limiter, 0.10))
//
//	report := agg.Run(ctx)
//	fmt.Println(report.Status)
//
// The same aggregator backs the HTTP probes mounted by RegisterHandlers.
package health
