package observe

import (
	"fmt"
	"slices"

	"github.com/jonwraymond/kfin/observe/exporters"
)

// Config selects which telemetry signals are produced and where they go.
// It is embedded in the application config under "telemetry".
type Config struct {
	ServiceName string        `koanf:"service_name"`
	Version     string        `koanf:"version"`
	Tracing     TracingConfig `koanf:"tracing"`
	Metrics     MetricsConfig `koanf:"metrics"`
	Logging     LoggingConfig `koanf:"logging"`
}

// TracingConfig selects the span exporter (otlp, stdout or none) and the
// fraction of traces sampled.
type TracingConfig struct {
	Enabled   bool    `koanf:"enabled"`
	Exporter  string  `koanf:"exporter"`
	SamplePct float64 `koanf:"sample_pct"`
}

// MetricsConfig selects the metrics reader (otlp, prometheus, stdout or
// none). The prometheus reader registers with the default registry.
type MetricsConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Exporter string `koanf:"exporter"`
}

// LoggingConfig sets the minimum level (debug, info, warn or error) and the
// output format (json or console). Logs go to stderr.
type LoggingConfig struct {
	Enabled bool   `koanf:"enabled"`
	Level   string `koanf:"level"`
	Format  string `koanf:"format"`
}

var (
	logLevels  = []string{"", "debug", "info", "warn", "error"}
	logFormats = []string{"", "json", "console"}
)

// Validate checks the enabled sections only; settings under a disabled
// signal are ignored.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("%w: service_name is required", ErrInvalidConfig)
	}
	if t := c.Tracing; t.Enabled {
		if !exporters.ValidTracing(t.Exporter) {
			return fmt.Errorf("%w: tracing.exporter %q", ErrInvalidConfig, t.Exporter)
		}
		if t.SamplePct < 0 || t.SamplePct > 1 {
			return fmt.Errorf("%w: tracing.sample_pct %g not in [0, 1]", ErrInvalidConfig, t.SamplePct)
		}
	}
	if m := c.Metrics; m.Enabled && !exporters.ValidMetrics(m.Exporter) {
		return fmt.Errorf("%w: metrics.exporter %q", ErrInvalidConfig, m.Exporter)
	}
	if l := c.Logging; l.Enabled {
		if !slices.Contains(logLevels, l.Level) {
			return fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, l.Level)
		}
		if !slices.Contains(logFormats, l.Format) {
			return fmt.Errorf("%w: logging.format %q", ErrInvalidConfig, l.Format)
		}
	}
	return nil
}
