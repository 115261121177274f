package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/kfin/cache"
	"github.com/jonwraymond/kfin/ratelimit"
)

// IndexState is the part of entity.Index the index checker reads.
type IndexState interface {
	IsLoaded() bool
	Count() int
	ListedCount() int
}

// IndexChecker reports whether the resolution index has been loaded.
// An index loaded from an empty company list is degraded.
type IndexChecker struct {
	index IndexState
}

// NewIndexChecker creates an IndexChecker.
func NewIndexChecker(index IndexState) *IndexChecker {
	return &IndexChecker{index: index}
}

// Name returns "index".
func (c *IndexChecker) Name() string { return "index" }

// Check reports the index state.
func (c *IndexChecker) Check(ctx context.Context) Result {
	if !c.index.IsLoaded() {
		return Unhealthy("company index not loaded", nil)
	}
	details := map[string]any{
		"companies": c.index.Count(),
		"listed":    c.index.ListedCount(),
	}
	if c.index.Count() == 0 {
		return Degraded("company index is empty").WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d companies indexed", c.index.Count())).WithDetails(details)
}

// CacheStore is the part of cache.PersistentCache the cache checker reads.
type CacheStore interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (cache.Stats, error)
}

// MemoryStats is the part of cache.MemoryCache the cache checker reads.
type MemoryStats interface {
	Len() int
	Capacity() int
}

// CacheChecker pings the persistent tier and reports both tiers' sizes.
// A nil store means persistence is disabled, which is degraded.
type CacheChecker struct {
	store  CacheStore
	memory MemoryStats
}

// NewCacheChecker creates a CacheChecker. Either argument may be nil.
func NewCacheChecker(store CacheStore, memory MemoryStats) *CacheChecker {
	return &CacheChecker{store: store, memory: memory}
}

// Name returns "cache".
func (c *CacheChecker) Name() string { return "cache" }

// Check pings the store and collects statistics.
func (c *CacheChecker) Check(ctx context.Context) Result {
	details := map[string]any{}
	if c.memory != nil {
		details["memory_entries"] = c.memory.Len()
		details["memory_capacity"] = c.memory.Capacity()
	}

	if c.store == nil {
		return Degraded("persistent cache disabled").WithDetails(details)
	}
	if err := c.store.Ping(ctx); err != nil {
		return Unhealthy("persistent cache unreachable", err).WithDetails(details)
	}
	stats, err := c.store.Stats(ctx)
	if err != nil {
		return Unhealthy("persistent cache stats failed", err).WithDetails(details)
	}
	details["entries"] = stats.Entries
	details["bytes"] = stats.TotalBytes
	details["hits"] = stats.TotalHits
	return Healthy(fmt.Sprintf("%d entries on disk", stats.Entries)).WithDetails(details)
}

// QuotaSource reports limiter usage; *ratelimit.Limiter satisfies it.
type QuotaSource interface {
	Status() ratelimit.Status
}

// DefaultQuotaWarnFraction is the remaining share of the daily quota below
// which the quota checker reports degraded.
const DefaultQuotaWarnFraction = 0.10

// QuotaChecker reports the remaining daily quota. Below warnFraction it is
// degraded; a spent quota is unhealthy.
type QuotaChecker struct {
	source       QuotaSource
	warnFraction float64
}

// NewQuotaChecker creates a QuotaChecker. A warnFraction outside (0, 1)
// uses DefaultQuotaWarnFraction.
func NewQuotaChecker(source QuotaSource, warnFraction float64) *QuotaChecker {
	if warnFraction <= 0 || warnFraction >= 1 {
		warnFraction = DefaultQuotaWarnFraction
	}
	return &QuotaChecker{source: source, warnFraction: warnFraction}
}

// Name returns "quota".
func (c *QuotaChecker) Name() string { return "quota" }

// Check reads the limiter status.
func (c *QuotaChecker) Check(ctx context.Context) Result {
	st := c.source.Status()
	details := map[string]any{
		"upstream":  st.Name,
		"day":       st.Day,
		"used":      st.Used,
		"limit":     st.DailyLimit,
		"remaining": st.RemainingDaily,
	}

	if st.DailyLimit <= 0 || st.RemainingDaily == ratelimit.Unlimited {
		return Healthy("no daily quota").WithDetails(details)
	}
	msg := fmt.Sprintf("%d of %d requests left on %s", st.RemainingDaily, st.DailyLimit, st.Day)
	switch {
	case st.RemainingDaily == 0:
		return Unhealthy(msg, ratelimit.ErrDailyQuotaExceeded).WithDetails(details)
	case float64(st.RemainingDaily) < c.warnFraction*float64(st.DailyLimit):
		return Degraded(msg).WithDetails(details)
	default:
		return Healthy(msg).WithDetails(details)
	}
}
