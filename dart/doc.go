// Package dart is a client for the OpenDART disclosure API.
//
// It downloads the full company list used to build an entity.Index and
// fetches company overviews and single-company financial statements. Data
// calls go through a cache.Through so repeated requests cost no quota, and
// every HTTP attempt goes through a resilience.Executor that spends quota,
// retries transient failures and trips a circuit breaker.
//
//	client, err := dart.New(apiKey,
//	    dart.WithCache(tiers.Through),
//	    dart.WithExecutor(executor),
//	)
//	accounts, err := client.SingleAccounts(ctx, "00126380", 2024, dart.ReportAnnual)
package dart
