// Package annotate tags outgoing requests with the regions the page wants
// pulled for the request URL.
package annotate

import (
	"net/http"
	"strings"
)

// DefaultHeader is the advisory request header listing pulled regions.
const DefaultHeader = "X-Pull-Regions"

// Finder returns the regions watched for a raw request URL.
type Finder interface {
	FindRegionsForURL(url string) []string
}

// FinderFunc adapts a function to Finder.
type FinderFunc func(url string) []string

func (f FinderFunc) FindRegionsForURL(url string) []string { return f(url) }

// Transport is an http.RoundTripper that sets the pull-regions header
// before delegating. Requests with no watched regions pass through
// untouched.
type Transport struct {
	Base   http.RoundTripper
	Finder Finder
	Header string
}

// New wraps base. A nil base uses http.DefaultTransport.
func New(base http.RoundTripper, f Finder, header string) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if header == "" {
		header = DefaultHeader
	}
	return &Transport{Base: base, Finder: f, Header: header}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.Base.RoundTrip(Annotate(req, t.Finder, t.Header))
}

// Annotate returns req, or a clone of req carrying the header when the
// finder reports regions for its URL. The original request is never
// modified.
func Annotate(req *http.Request, f Finder, header string) *http.Request {
	regions := f.FindRegionsForURL(req.URL.String())
	if len(regions) == 0 {
		return req
	}
	out := req.Clone(req.Context())
	out.Header.Set(header, strings.Join(regions, ","))
	return out
}
