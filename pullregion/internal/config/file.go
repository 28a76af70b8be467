// Package config handles pullregion configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/pullregion/pullregion/internal/envelope"
)

// Config is the top-level pullregion configuration.
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	Header    string        `yaml:"header"`
	Keys      envelope.Keys `yaml:"keys"`
	MatchMode string        `yaml:"match_mode"` // legacy | glob
	Sanitize  bool          `yaml:"sanitize"`
	Journal   string        `yaml:"journal"` // SQLite path, empty = off
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Watches   []WatchConfig `yaml:"watches"`
}

// WatchConfig declares regions to pull for a URL pattern.
type WatchConfig struct {
	URL     string   `yaml:"url"`
	Regions []string `yaml:"regions"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Header == "" {
		c.Header = "X-Pull-Regions"
	}
	c.Keys = c.Keys.WithDefaults()
	if c.MatchMode == "" {
		c.MatchMode = "legacy"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; PullRegion/1.0)"
	}
}

func (c *Config) validate() error {
	switch c.MatchMode {
	case "legacy", "glob":
	default:
		return fmt.Errorf("config: match_mode %q: want legacy or glob", c.MatchMode)
	}
	for i, w := range c.Watches {
		if w.URL == "" {
			return fmt.Errorf("config: watches[%d]: url is required", i)
		}
		if len(w.Regions) == 0 {
			return fmt.Errorf("config: watches[%d] (%s): at least one region is required", i, w.URL)
		}
	}
	return nil
}
