// CLAUDE:SUMMARY Page container: owns the document, watch registry, event bus, loading counter and resolver for one loaded page.
// Package pullregion keeps parts of a loaded HTML page in sync with a
// server without full reloads.
//
// A Page owns the document and a watch table mapping URL patterns to region
// names. Requests sent through the page transport carry an X-Pull-Regions
// header naming the regions watched for their URL; JSON responses of the
// form
//
//	{"regions": {"cart": "<div>...</div>"}, "events": {...}, "messages": [...]}
//
// are written back into the document and their events and messages are
// dispatched to subscribers.
//
// Usage:
//
//	p, err := pullregion.Load(ctx, "https://shop.test/", pullregion.WithLogger(logger))
//	p.Bootstrap()
//	p.PullRegionForURL("/cart/*", "cart")
//	c := pullregion.NewClient(p, nil)
//	res, err := c.Click(ctx, p.Query("a.ajax"))
package pullregion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/net/html"

	"github.com/hazyhaar/pullregion/pullregion/internal/annotate"
	"github.com/hazyhaar/pullregion/pullregion/internal/dom"
	"github.com/hazyhaar/pullregion/pullregion/internal/envelope"
	"github.com/hazyhaar/pullregion/pullregion/internal/eventbus"
	"github.com/hazyhaar/pullregion/pullregion/internal/fetcher"
	"github.com/hazyhaar/pullregion/pullregion/internal/loading"
	"github.com/hazyhaar/pullregion/pullregion/internal/match"
	"github.com/hazyhaar/pullregion/pullregion/internal/registry"
	"github.com/hazyhaar/pullregion/pullregion/internal/resolve"
	"github.com/hazyhaar/pullregion/pullregion/internal/urlnorm"
)

const (
	// WatchAttr marks an element for registration by Bootstrap. Its value
	// is the URL pattern.
	WatchAttr = "data-ajax-watch"
	// WatchMapAttr marks an element whose text is a JSON watch map.
	WatchMapAttr = "data-ajax-watch-map"
	// RegionAttr binds an element to a region name.
	RegionAttr = resolve.BindAttr
	// LoadingClass is set on <body> while requests are in flight, and on
	// the element that triggered a request.
	LoadingClass = "ajax-loading"
)

// Page is the per-page container. Create one per loaded document; all
// methods are safe for concurrent use.
type Page struct {
	mu  sync.Mutex // guards doc
	doc *dom.Document
	url string

	norm     *urlnorm.Normalizer
	matcher  *match.Matcher
	registry *registry.Registry
	bus      *eventbus.Bus
	loading  *loading.Indicator
	resolver *resolve.Resolver

	keys      envelope.Keys
	header    string
	recorder  Recorder
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// Recorder receives the outcome of every applied response.
type Recorder interface {
	Record(ctx context.Context, pageURL string, rep Report)
}

type options struct {
	logger    *slog.Logger
	mode      match.Mode
	header    string
	keys      envelope.Keys
	sanitizer Sanitizer
	recorder  Recorder
	client    *http.Client
	userAgent string
}

// Option configures a Page.
type Option func(*options)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMatchMode selects how wildcard patterns are compiled.
func WithMatchMode(m MatchMode) Option {
	return func(o *options) { o.mode = m }
}

// WithHeader overrides the outgoing header name.
func WithHeader(name string) Option {
	return func(o *options) { o.header = name }
}

// WithKeys overrides the envelope key names.
func WithKeys(k Keys) Option {
	return func(o *options) { o.keys = k }
}

// WithSanitizer filters region HTML before it enters the document.
func WithSanitizer(s Sanitizer) Option {
	return func(o *options) { o.sanitizer = s }
}

// WithRecorder reports every applied response to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithHTTPClient sets the client Load uses to fetch the page. It is also
// the default for NewClient.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithUserAgent sets the User-Agent sent by Load and by Client requests.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// New wraps an already parsed document. pageURL is the base against which
// watch patterns and request URLs are resolved.
func New(doc *Document, pageURL string, opts ...Option) *Page {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return newPage(doc, pageURL, &o)
}

// Parse reads an HTML document from r and wraps it.
func Parse(r io.Reader, pageURL string, opts ...Option) (*Page, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("pullregion: parse: %w", err)
	}
	return New(doc, pageURL, opts...), nil
}

// Load fetches pageURL and wraps the returned document. Redirects move the
// page base to the final URL.
func Load(ctx context.Context, pageURL string, opts ...Option) (*Page, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	var fopts []fetcher.Option
	if o.client != nil {
		fopts = append(fopts, fetcher.WithClient(o.client))
	}
	if o.userAgent != "" {
		fopts = append(fopts, fetcher.WithUserAgent(o.userAgent))
	}
	if o.logger != nil {
		fopts = append(fopts, fetcher.WithLogger(o.logger))
	}
	res, err := fetcher.New(fopts...).Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("pullregion: load: %w", err)
	}
	return newPage(res.Doc, res.URL, &o), nil
}

func newPage(doc *dom.Document, pageURL string, o *options) *Page {
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.mode == "" {
		o.mode = match.ModeLegacy
	}
	if o.header == "" {
		o.header = annotate.DefaultHeader
	}

	matcher := match.New(match.WithMode(o.mode), match.WithLogger(o.logger))
	ropts := []resolve.Option{resolve.WithLogger(o.logger)}
	if o.sanitizer != nil {
		ropts = append(ropts, resolve.WithSanitizer(o.sanitizer))
	}

	p := &Page{
		doc:      doc,
		url:      pageURL,
		norm:     urlnorm.New(pageURL),
		matcher:  matcher,
		registry: registry.New(matcher),
		bus:      eventbus.New(),
		resolver: resolve.New(ropts...),
		keys:     o.keys.WithDefaults(),
		header:   o.header,
		recorder:  o.recorder,
		client:    o.client,
		userAgent: o.userAgent,
		logger:    o.logger,
	}
	p.loading = loading.New(p.setBusy)
	return p
}

// URL returns the page base URL.
func (p *Page) URL() string { return p.url }

// Header returns the outgoing header name.
func (p *Page) Header() string { return p.header }

// Root returns the document node. Passing it as a registration target
// registers the watch without binding any element.
func (p *Page) Root() *html.Node { return p.doc.Root }

// View runs fn with the document locked. fn must not call back into the
// page.
func (p *Page) View(fn func(root *html.Node)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.doc.Root)
}

// Query returns the first element matching selector, or nil.
func (p *Page) Query(selector string) *html.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return dom.Query(p.doc.Root, selector)
}

// QueryAll returns every element matching selector in document order.
func (p *Page) QueryAll(selector string) []*html.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return dom.QueryAll(p.doc.Root, selector)
}

// Render serialises the whole document.
func (p *Page) Render() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.Render()
}

// PullRegionForURL registers region for the URL pattern rawURL. The
// pattern is normalised against the page URL first; a "*" in it matches
// any run of characters.
//
// When exactly one target is given and it is an element, that element is
// bound to the region with data-ajax-region.
func (p *Page) PullRegionForURL(rawURL, region string, targets ...*html.Node) {
	pattern := p.norm.Normalize(rawURL)
	p.registry.Add(pattern, region)
	if len(targets) == 1 && targets[0] != nil && targets[0].Type == html.ElementNode {
		p.mu.Lock()
		dom.SetAttr(targets[0], RegionAttr, region)
		p.mu.Unlock()
	}
	p.logger.Debug("pullregion: watch added", "pattern", pattern, "region", region)
}

// Watch is one URL pattern and the regions to pull for it.
type Watch struct {
	URL     string
	Regions []string
}

// PullRegions registers every watch in order. Targets are handled as in
// PullRegionForURL, once per region.
func (p *Page) PullRegions(watches []Watch, targets ...*html.Node) {
	for _, w := range watches {
		for _, r := range w.Regions {
			p.PullRegionForURL(w.URL, r, targets...)
		}
	}
}

// ClearPullRegions empties the watch table. Element bindings are kept.
func (p *Page) ClearPullRegions() {
	p.registry.Clear()
	p.logger.Debug("pullregion: watches cleared")
}

// FindRegionsForURL returns the regions watched for rawURL. The query
// string and fragment are ignored.
func (p *Page) FindRegionsForURL(rawURL string) []string {
	return p.registry.FindRegions(p.norm.Normalize(rawURL))
}

// Watches returns a copy of the watch table in registration order.
func (p *Page) Watches() []Watch {
	entries := p.registry.Entries()
	out := make([]Watch, len(entries))
	for i, e := range entries {
		out[i] = Watch{URL: e.Pattern, Regions: e.Regions}
	}
	return out
}

// Bootstrap registers the watches declared in the markup:
//
//   - every element carrying data-ajax-watch, bound to its
//     data-ajax-region; elements without a region name are skipped
//   - every element carrying data-ajax-watch-map, whose text is a JSON
//     watch map (see ParseWatchMap); these bind no element
//
// It returns the number of region watches registered.
func (p *Page) Bootstrap() int {
	type decl struct {
		el            *html.Node
		watch, region string
	}
	var decls []decl
	var maps []string
	p.mu.Lock()
	for _, el := range dom.WithAttr(p.doc.Root, WatchAttr) {
		decls = append(decls, decl{el: el, watch: dom.Attr(el, WatchAttr), region: dom.Attr(el, RegionAttr)})
	}
	for _, el := range dom.WithAttr(p.doc.Root, WatchMapAttr) {
		maps = append(maps, dom.Text(el))
	}
	p.mu.Unlock()

	n := 0
	for _, d := range decls {
		if d.region == "" {
			p.logger.Warn("pullregion: watch element has no region name, skipped", "watch", d.watch)
			continue
		}
		p.PullRegionForURL(d.watch, d.region, d.el)
		n++
	}
	for _, m := range maps {
		watches, err := ParseWatchMap([]byte(m))
		if err != nil {
			p.logger.Warn("pullregion: bad watch map, skipped", "error", err)
			continue
		}
		p.PullRegions(watches)
		for _, w := range watches {
			n += len(w.Regions)
		}
	}
	return n
}

// Subscribe registers h for events named name. Use StatusMessage for
// messages and AllEvents for everything. The returned function removes
// the subscription.
func (p *Page) Subscribe(name string, h Handler) (unsubscribe func()) {
	return p.bus.Subscribe(name, h)
}

// Transport returns a RoundTripper that annotates requests with the
// regions watched for their URL before handing them to base.
func (p *Page) Transport(base http.RoundTripper) http.RoundTripper {
	return annotate.New(base, annotate.FinderFunc(p.FindRegionsForURL), p.header)
}

// ApplyResponse processes a response body. Bodies that are not a JSON
// object are ignored and ok is false. Otherwise regions are written into
// the document, then events are dispatched, then one StatusMessage event
// per message. Handlers run after the document lock is released.
func (p *Page) ApplyResponse(ctx context.Context, body []byte) (rep Report, ok bool) {
	env, ok := envelope.ParseKeys(body, p.keys)
	if !ok {
		p.logger.Debug("pullregion: response is not an envelope", "size", len(body))
		return Report{}, false
	}

	p.mu.Lock()
	rep = p.resolver.ApplyRegions(p.doc.Root, env.Regions)
	p.mu.Unlock()

	for _, ev := range env.Events {
		p.bus.Dispatch(ctx, ev.Name, ev.Detail)
		rep.Events++
	}
	for _, m := range env.Messages {
		p.bus.Dispatch(ctx, StatusMessage, m)
		rep.Messages++
	}

	if p.recorder != nil {
		p.recorder.Record(ctx, p.url, rep)
	}
	return rep, true
}

// RegionHTML returns the inner HTML of the first element bound to region,
// falling back to the element with that id.
func (p *Page) RegionHTML(region string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if els := dom.ByAttr(p.doc.Root, RegionAttr, region); len(els) > 0 {
		return dom.InnerHTML(els[0]), true
	}
	if el := dom.ByID(p.doc.Root, region); el != nil {
		return dom.InnerHTML(el), true
	}
	return "", false
}

// Loading reports whether any request is in flight.
func (p *Page) Loading() bool { return p.loading.Active() }

// StartRequest and EndRequest drive the loading indicator for requests
// made outside Client.
func (p *Page) StartRequest() { p.loading.Start() }

// EndRequest marks a request started with StartRequest as finished.
func (p *Page) EndRequest() { p.loading.Done() }

func (p *Page) setBusy(active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	body := p.doc.Body()
	if body == nil {
		return
	}
	if active {
		dom.AddClass(body, LoadingClass)
	} else {
		dom.RemoveClass(body, LoadingClass)
	}
}
