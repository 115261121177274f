package cache

import "github.com/jonwraymond/kfin/observe"

// TiersConfig describes the default memory and persistent tiers.
type TiersConfig struct {
	// Path is the SQLite file. Ignored when DisablePersistent is set.
	Path string

	// MemoryCapacity bounds the memory tier; <= 0 uses DefaultMemoryCapacity.
	MemoryCapacity int

	DisableMemory     bool
	DisablePersistent bool

	// SingleFlight coalesces concurrent misses on the same key.
	SingleFlight bool

	Logger  observe.Logger
	Metrics observe.Metrics
}

// Tiers owns the caches built from a TiersConfig.
type Tiers struct {
	Memory     *MemoryCache[any]
	Persistent *PersistentCache
	Through    *Through
}

// NewTiers opens the configured tiers and wires them into a Through.
// Nothing is shared between calls; callers pass the result explicitly.
func NewTiers(cfg TiersConfig) (*Tiers, error) {
	t := &Tiers{}

	var (
		memory     MemoryTier
		persistent PersistentTier
	)
	if !cfg.DisableMemory {
		t.Memory = NewMemoryCache[any](cfg.MemoryCapacity)
		memory = t.Memory
	}
	if !cfg.DisablePersistent {
		p, err := OpenPersistentCache(cfg.Path)
		if err != nil {
			return nil, err
		}
		t.Persistent = p
		persistent = p
	}

	opts := []ThroughOption{WithLogger(cfg.Logger), WithMetrics(cfg.Metrics)}
	if cfg.SingleFlight {
		opts = append(opts, WithSingleFlight())
	}
	t.Through = NewThrough(memory, persistent, opts...)
	return t, nil
}

// Close releases the persistent tier, if any.
func (t *Tiers) Close() error {
	if t == nil || t.Persistent == nil {
		return nil
	}
	return t.Persistent.Close()
}
