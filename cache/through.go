package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/kfin/observe"
)

// FetchFunc loads a value from the upstream source. It owns its own timeout
// and cancellation; Call never retries it.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Layer names the tier that satisfied a call.
type Layer string

// Layers reported in Result. A freshly fetched value has LayerNone.
const (
	LayerNone   Layer = ""
	LayerMemory Layer = Layer(observe.LayerMemory)
	LayerDisk   Layer = Layer(observe.LayerDisk)
)

// Result carries a value and the tier it came from.
type Result[V any] struct {
	Value V
	Layer Layer
}

// Cached reports whether the value was served from a cache tier.
func (r Result[V]) Cached() bool { return r.Layer != LayerNone }

// Through composes a memory tier and a persistent tier in front of fetch
// functions. Either tier may be nil.
//
// Contract:
//   - Concurrency: safe for concurrent use when its tiers are.
//   - Errors: tier failures are logged and treated as misses. Fetch errors
//     propagate unchanged and are never cached.
type Through struct {
	memory     MemoryTier
	persistent PersistentTier
	logger     observe.Logger
	metrics    observe.Metrics
	group      *singleflight.Group
}

// ThroughOption configures a Through.
type ThroughOption func(*Through)

// WithLogger sets the logger used for tier failures.
func WithLogger(l observe.Logger) ThroughOption {
	return func(t *Through) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithMetrics records a lookup metric per call, labelled by layer.
func WithMetrics(m observe.Metrics) ThroughOption {
	return func(t *Through) {
		if m != nil {
			t.metrics = m
		}
	}
}

// WithSingleFlight coalesces concurrent misses on the same key into one
// fetch. Forced refreshes are never coalesced. Off by default.
//
// The shared fetch runs under context.WithoutCancel of the first caller's
// context: it keeps that caller's values but not its deadline or
// cancellation. A caller whose own context ends stops waiting and gets
// ctx.Err(), while the fetch continues for the others.
func WithSingleFlight() ThroughOption {
	return func(t *Through) {
		t.group = &singleflight.Group{}
	}
}

// NewThrough creates a Through over the given tiers.
func NewThrough(memory MemoryTier, persistent PersistentTier, opts ...ThroughOption) *Through {
	t := &Through{
		memory:     memory,
		persistent: persistent,
		logger:     observe.NopLogger(),
		metrics:    observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type callOptions struct {
	forceRefresh  bool
	skipMemory    bool
	skipPersisted bool
}

// CallOption adjusts a single Call.
type CallOption func(*callOptions)

// WithForceRefresh bypasses both tiers on read and always invokes fetch.
// The fresh value is still written back.
func WithForceRefresh() CallOption {
	return func(o *callOptions) { o.forceRefresh = true }
}

// WithoutMemory skips the memory tier for this call.
func WithoutMemory() CallOption {
	return func(o *callOptions) { o.skipMemory = true }
}

// WithoutPersistent skips the persistent tier for this call.
func WithoutPersistent() CallOption {
	return func(o *callOptions) { o.skipPersisted = true }
}

// Call returns the value for key from the first tier that holds it, or from
// fetch on a full miss (or when forced), storing the fetched value into every
// enabled tier with ttl. A nil Through calls fetch directly.
//
// Memory values are type-asserted to V; a value of another type is a miss.
func Call[V any](ctx context.Context, t *Through, key string, ttl time.Duration, fetch FetchFunc[V], opts ...CallOption) (Result[V], error) {
	if fetch == nil {
		return Result[V]{}, ErrNilFetch
	}
	if t == nil {
		v, err := fetch(ctx)
		return Result[V]{Value: v}, err
	}
	if err := ValidateKey(key); err != nil {
		return Result[V]{}, err
	}

	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	useMemory := t.memory != nil && !o.skipMemory
	usePersistent := t.persistent != nil && !o.skipPersisted
	provider, operation := splitKey(key)
	meta := observe.CallMeta{Provider: provider, Operation: operation, Key: key}

	if !o.forceRefresh {
		if useMemory {
			start := time.Now()
			if raw, ok := t.memory.Get(key); ok {
				if v, ok := raw.(V); ok {
					t.metrics.RecordLookup(ctx, meta, observe.LayerMemory, time.Since(start), nil)
					return Result[V]{Value: v, Layer: LayerMemory}, nil
				}
			}
		}
		if usePersistent {
			start := time.Now()
			var v V
			found, err := t.persistent.Get(ctx, key, &v)
			if err != nil {
				t.logger.With(meta).Warn(ctx, "persistent cache read failed", observe.Field{Key: "error", Value: err})
			} else if found {
				t.metrics.RecordLookup(ctx, meta, observe.LayerDisk, time.Since(start), nil)
				if useMemory {
					t.memory.Set(key, v, ttl)
				}
				return Result[V]{Value: v, Layer: LayerDisk}, nil
			}
		}
	}

	load := func(ctx context.Context) (V, error) {
		start := time.Now()
		v, err := fetch(ctx)
		t.metrics.RecordLookup(ctx, meta, observe.LayerOrigin, time.Since(start), err)
		if err != nil {
			return v, err
		}
		if useMemory {
			t.memory.Set(key, v, ttl)
		}
		if usePersistent {
			if err := t.persistent.Set(ctx, key, v, ttl); err != nil {
				t.logger.With(meta).Warn(ctx, "persistent cache write failed", observe.Field{Key: "error", Value: err})
			}
		}
		return v, nil
	}

	if t.group == nil || o.forceRefresh {
		v, err := load(ctx)
		if err != nil {
			return Result[V]{}, err
		}
		return Result[V]{Value: v}, nil
	}

	flight := t.group.DoChan(key, func() (any, error) {
		return load(context.WithoutCancel(ctx))
	})
	var res singleflight.Result
	select {
	case res = <-flight:
	case <-ctx.Done():
		return Result[V]{}, ctx.Err()
	}
	if res.Err != nil {
		return Result[V]{}, res.Err
	}
	v, ok := res.Val.(V)
	if !ok {
		// Another caller coalesced on this key with a different value type.
		v, err := load(ctx)
		if err != nil {
			return Result[V]{}, err
		}
		return Result[V]{Value: v}, nil
	}
	return Result[V]{Value: v}, nil
}
