// Package ratelimit paces calls to quota-bound upstream APIs.
//
// A Limiter combines a per-second token bucket with a daily request quota
// that resets at midnight in the provider's time zone (Asia/Seoul by
// default). Callers take a Permit with Acquire before every upstream request
// and can inspect the remaining quota with Status.
package ratelimit
