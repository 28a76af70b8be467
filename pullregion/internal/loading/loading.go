// Package loading tracks in-flight requests for the page-wide loading
// indicator. The indicator is active while at least one request is in
// flight, so overlapping requests cannot clear it early.
package loading

import "sync"

// Indicator is a reference-counted busy flag.
type Indicator struct {
	mu       sync.Mutex
	count    int
	onChange func(active bool)
}

// New creates an Indicator. onChange, if non-nil, is called on the 0→1 and
// 1→0 transitions, under the indicator's lock so calls never interleave.
func New(onChange func(active bool)) *Indicator {
	return &Indicator{onChange: onChange}
}

// Start records a request start.
func (i *Indicator) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.count++
	if i.count == 1 && i.onChange != nil {
		i.onChange(true)
	}
}

// Done records a request completion. Extra calls are ignored.
func (i *Indicator) Done() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.count == 0 {
		return
	}
	i.count--
	if i.count == 0 && i.onChange != nil {
		i.onChange(false)
	}
}

// Active reports whether any request is in flight.
func (i *Indicator) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.count > 0
}

// InFlight returns the number of requests in flight.
func (i *Indicator) InFlight() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.count
}
