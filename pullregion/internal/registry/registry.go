// Package registry holds the watch table: normalised URL pattern to the
// region names that should be pulled when a request hits that pattern.
//
// Patterns keep their first-registration order and regions keep their
// per-pattern append order; duplicates are stored as given.
package registry

import "sync"

// Matcher decides whether a URL matches a pattern.
type Matcher interface {
	Matches(url, pattern string) bool
}

// Entry is one pattern and the regions watched for it.
type Entry struct {
	Pattern string
	Regions []string
}

// Registry is the watch table. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	match   Matcher
	order   []string
	regions map[string][]string
}

// New creates an empty Registry.
func New(m Matcher) *Registry {
	return &Registry{match: m, regions: make(map[string][]string)}
}

// Add appends region to the list for pattern. pattern must already be
// normalised.
func (r *Registry) Add(pattern, region string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regions[pattern]; !ok {
		r.order = append(r.order, pattern)
	}
	r.regions[pattern] = append(r.regions[pattern], region)
}

// Clear empties the table.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.regions = make(map[string][]string)
}

// FindRegions returns the concatenated region lists of every pattern that
// matches url, in pattern registration order. url must be normalised.
func (r *Registry) FindRegions(url string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, p := range r.order {
		if r.match.Matches(url, p) {
			out = append(out, r.regions[p]...)
		}
	}
	return out
}

// Len returns the number of distinct patterns.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Entries returns a copy of the table in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, Entry{
			Pattern: p,
			Regions: append([]string(nil), r.regions[p]...),
		})
	}
	return out
}
