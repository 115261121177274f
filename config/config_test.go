package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonwraymond/kfin/cache"
	"github.com/jonwraymond/kfin/entity"
	"github.com/jonwraymond/kfin/secret"
)

// isolate points every implicit location at a temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KFIN_HOME", dir)
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Home != dir {
		t.Errorf("Home = %q, want %q", cfg.Home, dir)
	}
	if cfg.Cache.Path != filepath.Join(dir, "cache.db") {
		t.Errorf("Cache.Path = %q", cfg.Cache.Path)
	}
	if cfg.Index.SnapshotPath != filepath.Join(dir, "corpcodes.json") {
		t.Errorf("Index.SnapshotPath = %q", cfg.Index.SnapshotPath)
	}
	if cfg.DART.UsagePath != filepath.Join(dir, "quota.json") {
		t.Errorf("DART.UsagePath = %q", cfg.DART.UsagePath)
	}
	if cfg.Cache.MemoryCapacity != cache.DefaultMemoryCapacity {
		t.Errorf("MemoryCapacity = %d", cfg.Cache.MemoryCapacity)
	}
	if cfg.Index.MinSimilarity != entity.DefaultMinSimilarity {
		t.Errorf("MinSimilarity = %v", cfg.Index.MinSimilarity)
	}
	if cfg.DART.DailyLimit != 20000 {
		t.Errorf("DailyLimit = %d, want 20000", cfg.DART.DailyLimit)
	}
	if cfg.DART.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.DART.Timeout)
	}
	if cfg.Telemetry.ServiceName != "kfin" {
		t.Errorf("ServiceName = %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	yaml := `
cache:
  memory_capacity: 42
  single_flight: true
index:
  min_similarity: 0.7
dart:
  timeout: 5s
  daily_limit: 100
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.MemoryCapacity != 42 || !cfg.Cache.SingleFlight {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Index.MinSimilarity != 0.7 {
		t.Errorf("MinSimilarity = %v, want 0.7", cfg.Index.MinSimilarity)
	}
	if cfg.DART.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.DART.Timeout)
	}
	if cfg.DART.DailyLimit != 100 {
		t.Errorf("DailyLimit = %d, want 100", cfg.DART.DailyLimit)
	}
	// Untouched keys keep their defaults.
	if cfg.DART.Burst != 5 {
		t.Errorf("Burst = %d, want 5", cfg.DART.Burst)
	}
}

func TestLoad_HomeConfigFile(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("dart:\n  rate: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DART.Rate != 2 {
		t.Errorf("Rate = %v, want 2", cfg.DART.Rate)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "c.yaml")
	if err := os.WriteFile(path, []byte("cache:\n  path: /from/file.db\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KFIN_CACHE__PATH", "/from/env.db")
	t.Setenv("KFIN_DART__DAILY_LIMIT", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.Path != "/from/env.db" {
		t.Errorf("Cache.Path = %q, want env value", cfg.Cache.Path)
	}
	if cfg.DART.DailyLimit != 7 {
		t.Errorf("DailyLimit = %d, want 7", cfg.DART.DailyLimit)
	}
}

func TestLoad_ConfigPathEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "via-env.yaml")
	if err := os.WriteFile(path, []byte("index:\n  max_alternatives: 9\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Index.MaxAlternatives != 9 {
		t.Errorf("MaxAlternatives = %d, want 9", cfg.Index.MaxAlternatives)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("Load() error = %v, want ErrLoad", err)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	isolate(t)
	t.Setenv("KFIN_INDEX__MIN_SIMILARITY", "1.5")

	_, err := Load("")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty home", func(c *Config) { c.Home = " " }},
		{"negative capacity", func(c *Config) { c.Cache.MemoryCapacity = -1 }},
		{"similarity one", func(c *Config) { c.Index.MinSimilarity = 1 }},
		{"negative alternatives", func(c *Config) { c.Index.MaxAlternatives = -1 }},
		{"negative daily limit", func(c *Config) { c.DART.DailyLimit = -1 }},
		{"zero attempts", func(c *Config) { c.DART.MaxAttempts = 0 }},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "loud" }},
		{"missing service name", func(c *Config) { c.Telemetry.ServiceName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"KFIN_HOME":                      "home",
		"KFIN_CACHE__MEMORY_CAPACITY":    "cache.memory_capacity",
		"KFIN_TELEMETRY__LOGGING__LEVEL": "telemetry.logging.level",
		"KFIN_CONFIG":                    "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Cache.Path = "/tmp/x.db"
	cfg.Cache.SingleFlight = true
	cfg.Index.MaxAlternatives = 3

	tc := cfg.TiersConfig(nil, nil)
	if tc.Path != "/tmp/x.db" || !tc.SingleFlight || tc.MemoryCapacity != cache.DefaultMemoryCapacity {
		t.Errorf("TiersConfig() = %+v", tc)
	}
	if got := cfg.IndexOptions(nil).MaxAlternatives; got != 3 {
		t.Errorf("IndexOptions().MaxAlternatives = %d, want 3", got)
	}
	lc := cfg.LimiterConfig()
	if lc.Name != "opendart" || lc.DailyLimit != 20000 || lc.Rate != 10 || lc.Burst != 5 {
		t.Errorf("LimiterConfig() = %+v", lc)
	}
}

func TestResolveAPIKey(t *testing.T) {
	ctx := context.Background()

	t.Run("from env reference", func(t *testing.T) {
		t.Setenv("OPENDART_API_KEY", " abc123 ")
		cfg := Default()
		key, err := cfg.ResolveAPIKey(ctx, nil)
		if err != nil || key != "abc123" {
			t.Fatalf("ResolveAPIKey() = %q, %v", key, err)
		}
	})

	t.Run("unset env", func(t *testing.T) {
		t.Setenv("OPENDART_API_KEY", "")
		os.Unsetenv("OPENDART_API_KEY")
		cfg := Default()
		if _, err := cfg.ResolveAPIKey(ctx, nil); !errors.Is(err, ErrMissingAPIKey) {
			t.Fatalf("ResolveAPIKey() error = %v, want ErrMissingAPIKey", err)
		}
	})

	t.Run("from file reference", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "key")
		if err := os.WriteFile(path, []byte("filekey\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg := Default()
		cfg.DART.APIKey = "secretref:file:" + path
		key, err := cfg.ResolveAPIKey(ctx, secret.NewDefaultResolver())
		if err != nil || key != "filekey" {
			t.Fatalf("ResolveAPIKey() = %q, %v", key, err)
		}
	})
}
