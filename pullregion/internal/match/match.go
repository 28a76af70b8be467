// Package match decides whether a normalised URL matches a watch pattern.
//
// A pattern without "*" must equal the URL exactly. A pattern with "*" is
// turned into an unanchored regular expression where "*" stands for any run
// of characters. Two modes control how the other characters are treated:
//
//	legacy  "." is literal, every other regexp metacharacter keeps its
//	        regexp meaning (e.g. "(a|b)" alternates)
//	glob    every character except "*" is literal
package match

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Wildcard is the single wildcard token recognised in patterns.
const Wildcard = "*"

// Mode selects how wildcard patterns are compiled.
type Mode string

const (
	ModeLegacy Mode = "legacy"
	ModeGlob   Mode = "glob"
)

// ParseMode maps a configuration string to a Mode. Unknown values fall back
// to ModeLegacy.
func ParseMode(s string) Mode {
	if Mode(s) == ModeGlob {
		return ModeGlob
	}
	return ModeLegacy
}

// Matcher tests URLs against patterns. Compiled wildcard patterns are cached;
// a Matcher is safe for concurrent use.
type Matcher struct {
	mode   Mode
	cache  *cache.Cache
	logger *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithMode sets the compilation mode. Default: ModeLegacy.
func WithMode(m Mode) Option {
	return func(mt *Matcher) { mt.mode = m }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(mt *Matcher) { mt.logger = l }
}

// WithCacheTTL bounds how long an unused compiled pattern stays cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(mt *Matcher) { mt.cache = cache.New(ttl, 2*ttl) }
}

// New creates a Matcher.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		mode:   ModeLegacy,
		cache:  cache.New(30*time.Minute, time.Hour),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Mode returns the compilation mode.
func (m *Matcher) Mode() Mode { return m.mode }

// Matches reports whether url matches pattern.
func (m *Matcher) Matches(url, pattern string) bool {
	if !strings.Contains(pattern, Wildcard) {
		return url == pattern
	}
	re := m.compiled(pattern)
	if re == nil {
		return false
	}
	return re.MatchString(url)
}

// compiled returns the cached regexp for pattern, or nil when the pattern
// does not compile. Failures are cached too so they are logged once.
func (m *Matcher) compiled(pattern string) *regexp.Regexp {
	key := string(m.mode) + "\x00" + pattern
	if v, ok := m.cache.Get(key); ok {
		return v.(*regexp.Regexp)
	}
	re, err := regexp.Compile(Expr(pattern, m.mode))
	if err != nil {
		m.logger.Warn("match: pattern does not compile, it will never match",
			"pattern", pattern, "mode", m.mode, "error", err)
		re = nil
	}
	m.cache.SetDefault(key, re)
	return re
}

// Expr returns the regular expression source a wildcard pattern compiles to.
func Expr(pattern string, mode Mode) string {
	parts := strings.Split(pattern, Wildcard)
	for i, p := range parts {
		if mode == ModeGlob {
			parts[i] = regexp.QuoteMeta(p)
		} else {
			parts[i] = strings.ReplaceAll(p, ".", `\.`)
		}
	}
	return strings.Join(parts, ".*")
}
