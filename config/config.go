package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonwraymond/kfin/cache"
	"github.com/jonwraymond/kfin/entity"
	"github.com/jonwraymond/kfin/observe"
	"github.com/jonwraymond/kfin/ratelimit"
	"github.com/jonwraymond/kfin/secret"
)

// Config is the full kfin configuration.
type Config struct {
	// Home holds the cache database, the company snapshot and the quota
	// usage file. Default: ~/.kfin
	Home string `koanf:"home"`

	Cache     CacheConfig    `koanf:"cache"`
	Index     IndexConfig    `koanf:"index"`
	DART      DARTConfig     `koanf:"dart"`
	Telemetry observe.Config `koanf:"telemetry"`
}

// CacheConfig configures the cache tiers.
type CacheConfig struct {
	// Path is the SQLite file. Default: <home>/cache.db
	Path              string `koanf:"path"`
	MemoryCapacity    int    `koanf:"memory_capacity"`
	DisableMemory     bool   `koanf:"disable_memory"`
	DisablePersistent bool   `koanf:"disable_persistent"`
	SingleFlight      bool   `koanf:"single_flight"`
}

// IndexConfig configures company resolution.
type IndexConfig struct {
	// SnapshotPath is the company list snapshot. Default: <home>/corpcodes.json
	SnapshotPath    string  `koanf:"snapshot_path"`
	MinSimilarity   float64 `koanf:"min_similarity"`
	MinQueryLength  int     `koanf:"min_query_length"`
	MaxAlternatives int     `koanf:"max_alternatives"`

	// RefreshAfter is the snapshot age after which sync should run again.
	RefreshAfter time.Duration `koanf:"refresh_after"`
}

// DARTConfig configures the OpenDART client and its limits.
type DARTConfig struct {
	// APIKey is resolved through package secret; keep references, not keys,
	// in config files.
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	DailyLimit int     `koanf:"daily_limit"`
	Rate       float64 `koanf:"rate"`
	Burst      int     `koanf:"burst"`

	// UsagePath persists today's request count across runs.
	// Default: <home>/quota.json
	UsagePath string `koanf:"usage_path"`

	MaxAttempts     int           `koanf:"max_attempts"`
	BreakerFailures int           `koanf:"breaker_failures"`
	BreakerReset    time.Duration `koanf:"breaker_reset"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Home: "~/.kfin",
		Cache: CacheConfig{
			MemoryCapacity: cache.DefaultMemoryCapacity,
		},
		Index: IndexConfig{
			MinSimilarity:   entity.DefaultMinSimilarity,
			MinQueryLength:  entity.DefaultMinQueryLength,
			MaxAlternatives: entity.DefaultMaxAlternatives,
			RefreshAfter:    7 * 24 * time.Hour,
		},
		DART: DARTConfig{
			APIKey:          "${OPENDART_API_KEY}",
			BaseURL:         "https://opendart.fss.or.kr",
			Timeout:         60 * time.Second,
			DailyLimit:      20000,
			Rate:            10,
			Burst:           5,
			MaxAttempts:     3,
			BreakerFailures: 5,
			BreakerReset:    time.Minute,
		},
		Telemetry: observe.Config{
			ServiceName: "kfin",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1},
			Metrics:     observe.MetricsConfig{Exporter: "none"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "warn", Format: "console"},
		},
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Home) == "" {
		return fmt.Errorf("%w: home is required", ErrInvalidConfig)
	}
	if c.Cache.MemoryCapacity < 0 {
		return fmt.Errorf("%w: cache.memory_capacity must be >= 0", ErrInvalidConfig)
	}
	if c.Index.MinSimilarity < 0 || c.Index.MinSimilarity >= 1 {
		return fmt.Errorf("%w: index.min_similarity must be in [0, 1)", ErrInvalidConfig)
	}
	if c.Index.MaxAlternatives < 0 || c.Index.MinQueryLength < 0 {
		return fmt.Errorf("%w: index limits must be >= 0", ErrInvalidConfig)
	}
	if c.DART.DailyLimit < 0 || c.DART.Rate < 0 || c.DART.Burst < 0 {
		return fmt.Errorf("%w: dart limits must be >= 0", ErrInvalidConfig)
	}
	if c.DART.MaxAttempts < 1 {
		return fmt.Errorf("%w: dart.max_attempts must be >= 1", ErrInvalidConfig)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("%w: telemetry: %w", ErrInvalidConfig, err)
	}
	return nil
}

// resolvePaths expands ~ in Home and derives empty file paths from it.
func (c *Config) resolvePaths() error {
	home, err := expandHome(c.Home)
	if err != nil {
		return err
	}
	c.Home = home

	derive := func(p *string, name string) error {
		if *p == "" {
			*p = filepath.Join(home, name)
			return nil
		}
		v, err := expandHome(*p)
		*p = v
		return err
	}
	if err := derive(&c.Cache.Path, "cache.db"); err != nil {
		return err
	}
	if err := derive(&c.Index.SnapshotPath, "corpcodes.json"); err != nil {
		return err
	}
	return derive(&c.DART.UsagePath, "quota.json")
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve home directory: %w", ErrLoad, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// TiersConfig returns the cache tier settings.
func (c *Config) TiersConfig(logger observe.Logger, metrics observe.Metrics) cache.TiersConfig {
	return cache.TiersConfig{
		Path:              c.Cache.Path,
		MemoryCapacity:    c.Cache.MemoryCapacity,
		DisableMemory:     c.Cache.DisableMemory,
		DisablePersistent: c.Cache.DisablePersistent,
		SingleFlight:      c.Cache.SingleFlight,
		Logger:            logger,
		Metrics:           metrics,
	}
}

// IndexOptions returns the entity index settings.
func (c *Config) IndexOptions(logger observe.Logger) entity.Options {
	return entity.Options{
		MinSimilarity:   c.Index.MinSimilarity,
		MinQueryLength:  c.Index.MinQueryLength,
		MaxAlternatives: c.Index.MaxAlternatives,
		Logger:          logger,
	}
}

// LimiterConfig returns the OpenDART quota settings.
func (c *Config) LimiterConfig() ratelimit.Config {
	return ratelimit.Config{
		Name:       "opendart",
		DailyLimit: c.DART.DailyLimit,
		Rate:       c.DART.Rate,
		Burst:      c.DART.Burst,
	}
}

// ResolveAPIKey expands DART.APIKey through resolver. A nil resolver uses
// secret.NewDefaultResolver. An unset environment reference reports
// ErrMissingAPIKey so callers can tell "not configured" from other failures.
func (c *Config) ResolveAPIKey(ctx context.Context, resolver *secret.Resolver) (string, error) {
	if resolver == nil {
		resolver = secret.NewDefaultResolver()
	}
	key, err := resolver.Resolve(ctx, c.DART.APIKey)
	if errors.Is(err, secret.ErrMissingEnv) || errors.Is(err, secret.ErrEmptySecret) || (err == nil && strings.TrimSpace(key) == "") {
		return "", ErrMissingAPIKey
	}
	if err != nil {
		return "", fmt.Errorf("config: resolve dart.api_key: %w", err)
	}
	return strings.TrimSpace(key), nil
}
