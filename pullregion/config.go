// CLAUDE:SUMMARY Public config surface: YAML loading and translation of a Config into page options and watches.
package pullregion

import (
	"net/http"

	"github.com/hazyhaar/pullregion/pullregion/internal/config"
)

// Config is the YAML configuration.
type Config = config.Config

// WatchConfig is one configured watch.
type WatchConfig = config.WatchConfig

// LoadConfig reads a YAML configuration file and applies defaults.
func LoadConfig(path string) (*Config, error) { return config.LoadFile(path) }

// ParseConfig decodes YAML configuration and applies defaults.
func ParseConfig(data []byte) (*Config, error) { return config.Parse(data) }

// ConfigOptions returns the page options cfg implies.
func ConfigOptions(cfg *Config) []Option {
	opts := []Option{
		WithHeader(cfg.Header),
		WithKeys(cfg.Keys),
		WithMatchMode(ParseMatchMode(cfg.MatchMode)),
		WithUserAgent(cfg.UserAgent),
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.Sanitize {
		opts = append(opts, WithSanitizer(NewSanitizer()))
	}
	return opts
}

// ConfigWatches converts the configured watches.
func ConfigWatches(cfg *Config) []Watch {
	out := make([]Watch, len(cfg.Watches))
	for i, w := range cfg.Watches {
		out[i] = Watch{URL: w.URL, Regions: w.Regions}
	}
	return out
}
