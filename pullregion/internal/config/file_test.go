package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`base_url: https://shop.test/`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Header != "X-Pull-Regions" {
		t.Errorf("header: %q", cfg.Header)
	}
	if cfg.Keys.Regions != "regions" || cfg.Keys.Events != "events" || cfg.Keys.Messages != "messages" {
		t.Errorf("keys: %+v", cfg.Keys)
	}
	if cfg.MatchMode != "legacy" {
		t.Errorf("match_mode: %q", cfg.MatchMode)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("timeout: %v", cfg.Timeout)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pullregion.yaml")
	data := `
base_url: https://shop.test/
header: X-Regions
keys:
  regions: blocks
match_mode: glob
sanitize: true
timeout: 5s
watches:
  - url: /cart/*
    regions: [cart, total]
  - url: /wishlist
    regions: [wishlist]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Header != "X-Regions" || cfg.MatchMode != "glob" || !cfg.Sanitize {
		t.Errorf("cfg: %+v", cfg)
	}
	if cfg.Keys.Regions != "blocks" || cfg.Keys.Events != "events" {
		t.Errorf("keys: %+v", cfg.Keys)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("timeout: %v", cfg.Timeout)
	}
	if len(cfg.Watches) != 2 || cfg.Watches[0].Regions[1] != "total" {
		t.Errorf("watches: %+v", cfg.Watches)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		yaml string
		want string
	}{
		{"match_mode: regex", "match_mode"},
		{"watches:\n  - regions: [a]", "url is required"},
		{"watches:\n  - url: /x", "at least one region"},
		{"base_url: [", "parse"},
	}
	for _, tt := range tests {
		_, err := Parse([]byte(tt.yaml))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Parse(%q): got %v, want error containing %q", tt.yaml, err, tt.want)
		}
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error")
	}
}
