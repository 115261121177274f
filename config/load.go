package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix marks environment variables read by Load.
	EnvPrefix = "KFIN_"

	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "KFIN_CONFIG"
)

// Load builds the configuration from defaults, an optional YAML file and the
// environment, then validates it. An explicit path must exist; the implicit
// locations are skipped when absent.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("%w: defaults: %w", ErrLoad, err)
	}

	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: config file %s: %w", ErrLoad, configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrLoad, err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %w", ErrLoad, err)
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the explicit path, $KFIN_CONFIG, or the default
// file under the home directory named by $KFIN_HOME or the built-in default.
func findConfigFile(path string) (string, error) {
	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		p, err := expandHome(path)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: config file: %w", ErrLoad, err)
		}
		return p, nil
	}

	home := os.Getenv(EnvPrefix + "HOME")
	if home == "" {
		home = Default().Home
	}
	home, err := expandHome(home)
	if err != nil {
		return "", err
	}
	p := filepath.Join(home, "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", nil
}

// envTransformFunc maps KFIN_CACHE__MEMORY_CAPACITY to cache.memory_capacity.
// KFIN_CONFIG selects the file and is not a config key.
func envTransformFunc(key string) string {
	if key == ConfigPathEnvVar {
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}
