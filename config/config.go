// Package config loads the demo binary's configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML files can use the usual
// human-readable forms ("5m", "30s", "1h30m").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config groups the configuration of all demo subsystems.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Lookup  LookupConfig  `yaml:"lookup"`
	Metrics MetricsConfig `yaml:"metrics"`

	// LogLevel is a logrus level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// CacheConfig tunes the cache itself.
type CacheConfig struct {
	// Capacity is the maximum number of cached avatars.
	Capacity int `yaml:"capacity"`

	// TTL is how long an authoritative write stays fresh.
	TTL Duration `yaml:"ttl"`

	// RefreshInterval is the drain period of the background refresh
	// worker. Zero disables the worker.
	RefreshInterval Duration `yaml:"refresh_interval"`

	// RefreshEnabled gates background refresh enqueueing.
	RefreshEnabled bool `yaml:"refresh_enabled"`
}

// LookupConfig points at the external profile service.
type LookupConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Timeout  Duration `yaml:"timeout"`
	Attempts uint     `yaml:"attempts"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Capacity:        100,
			TTL:             Duration(5 * time.Minute),
			RefreshInterval: Duration(30 * time.Second),
			RefreshEnabled:  true,
		},
		Lookup: LookupConfig{
			Timeout:  Duration(10 * time.Second),
			Attempts: 3,
		},
		Metrics: MetricsConfig{
			Listen:    "127.0.0.1:9187",
			Namespace: "avatarcache",
		},
		LogLevel: "info",
	}
}

// Load reads path and overlays it on the defaults, so a partial file
// only overrides what it mentions. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Cache.Capacity <= 0 {
		return cfg, fmt.Errorf("config %s: cache.capacity must be positive", path)
	}
	if cfg.Cache.TTL <= 0 {
		return cfg, fmt.Errorf("config %s: cache.ttl must be positive", path)
	}
	return cfg, nil
}
