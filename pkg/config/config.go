// Package config loads and validates the netlens configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netlens/netlens/pkg/proxy"
)

// DefaultFileName is the configuration file netlens looks for in the
// working directory.
const DefaultFileName = "netlens.yaml"

// Config is the full netlens configuration.
type Config struct {
	// MaxEvents is the event history capacity.
	MaxEvents int `yaml:"maxEvents"`

	// DedupWindow suppresses duplicate request observations of the same
	// method+url within this window (e.g. "50ms").
	DedupWindow Duration `yaml:"dedupWindow"`

	Proxy   ProxyConfig   `yaml:"proxy"`
	API     APIConfig     `yaml:"api"`
	Logging LoggingConfig `yaml:"logging"`
}

// ProxyConfig configures the capture proxy.
type ProxyConfig struct {
	// Addr is the proxy listen address.
	Addr string `yaml:"addr"`

	// Filter selects which proxied traffic is recorded.
	Filter proxy.FilterConfig `yaml:"filter"`
}

// APIConfig configures the live-view API.
type APIConfig struct {
	// Addr is the API listen address.
	Addr string `yaml:"addr"`
}

// LoggingConfig configures operational logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		MaxEvents:   500,
		DedupWindow: Duration(50 * time.Millisecond),
		Proxy:       ProxyConfig{Addr: ":8888"},
		API:         APIConfig{Addr: ":9091"},
		Logging:     LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file, filling unset fields with defaults.
// A missing path returns the defaults without error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.MaxEvents < 0 {
		return fmt.Errorf("maxEvents must not be negative, got %d", c.MaxEvents)
	}
	if c.DedupWindow < 0 {
		return fmt.Errorf("dedupWindow must not be negative, got %s", time.Duration(c.DedupWindow))
	}
	if c.Proxy.Addr == "" {
		return fmt.Errorf("proxy.addr must not be empty")
	}
	if c.API.Addr == "" {
		return fmt.Errorf("api.addr must not be empty")
	}
	return nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Duration is a time.Duration that round-trips through YAML as a duration
// string ("50ms", "2s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
