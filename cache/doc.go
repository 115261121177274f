// Package cache provides the two-tier cache that fronts rate-limited
// upstream APIs.
//
// Requests are fingerprinted with BuildKey, then passed through Call, which
// consults a bounded in-memory LRU (MemoryCache), then a SQLite-backed
// PersistentCache, and finally the caller's fetch function. Fresh results are
// written back to every configured tier. TTL tiers such as TTLLive and
// TTLPermanent encode how long each class of data stays valid.
package cache
