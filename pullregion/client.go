// CLAUDE:SUMMARY Client: ajax link clicks, submit-button presses and form submissions routed through the page transport.
package pullregion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/pullregion/pullregion/internal/dom"
)

const (
	// ClickedClass marks the submit button that triggered a form submission.
	ClickedClass = "ajax-clicked"

	linkSelector   = "a.ajax, a[data-target=ajax]"
	formSelector   = "form.ajax, form[data-target=ajax]"
	buttonSelector = "input[type=submit], button[type=submit], button"

	maxResponseSize = 10 << 20
)

var (
	// ErrNotAjax is returned for elements that are not ajax links, forms or
	// buttons inside an ajax form.
	ErrNotAjax = errors.New("pullregion: element is not ajax-enabled")
	// ErrNoForm is returned when a button has no enclosing form.
	ErrNoForm = errors.New("pullregion: button has no enclosing form")
)

// Result is the outcome of one ajax request.
type Result struct {
	StatusCode int
	// Envelope is false when the body was not a JSON object.
	Envelope bool
	Report   Report
}

// Client sends ajax requests on behalf of a Page. Every request goes
// through the page transport, so it carries the pull-regions header.
type Client struct {
	page   *Page
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Client. hc is copied and its transport wrapped; a
// nil hc falls back to the page's WithHTTPClient, then to a client with a
// 30s timeout.
func NewClient(p *Page, hc *http.Client) *Client {
	var c http.Client
	if hc == nil {
		hc = p.client
	}
	if hc != nil {
		c = *hc
	} else {
		c.Timeout = 30 * time.Second
	}
	c.Transport = p.Transport(c.Transport)
	return &Client{page: p, http: &c, logger: p.logger}
}

// Page returns the page the client acts on.
func (c *Client) Page() *Page { return c.page }

// Click follows an ajax link (a.ajax or a[data-target=ajax]) with a GET.
func (c *Client) Click(ctx context.Context, link *html.Node) (*Result, error) {
	p := c.page
	p.mu.Lock()
	if link == nil || !dom.Matches(link, linkSelector) {
		p.mu.Unlock()
		return nil, ErrNotAjax
	}
	href := p.norm.Resolve(dom.Attr(link, "href"))
	dom.AddClass(link, LoadingClass)
	p.mu.Unlock()
	defer c.unmark(link)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return nil, fmt.Errorf("pullregion: click: %w", err)
	}
	return c.Do(req)
}

// PressButton clicks a submit button inside an ajax form. The button is
// marked ajax-clicked so its name and value are sent with the form.
func (c *Client) PressButton(ctx context.Context, button *html.Node) (*Result, error) {
	p := c.page
	p.mu.Lock()
	if button == nil || !dom.Matches(button, buttonSelector) || !isSubmit(button) {
		p.mu.Unlock()
		return nil, ErrNotAjax
	}
	form := dom.Closest(button, atom.Form)
	if form == nil {
		p.mu.Unlock()
		return nil, ErrNoForm
	}
	if !dom.Matches(form, formSelector) {
		p.mu.Unlock()
		return nil, ErrNotAjax
	}
	dom.AddClass(button, LoadingClass, ClickedClass)
	p.mu.Unlock()

	res, err := c.Submit(ctx, form)
	if err != nil {
		c.unmark(button)
	}
	return res, err
}

// Submit sends an ajax form (form.ajax or form[data-target=ajax]). The
// form's successful controls are serialised in document order, followed
// by the name and value of the ajax-clicked button, if any. GET forms put
// the data in the query string; other methods send it url-encoded in the
// body.
func (c *Client) Submit(ctx context.Context, form *html.Node) (*Result, error) {
	p := c.page
	p.mu.Lock()
	if form == nil || !dom.Matches(form, formSelector) {
		p.mu.Unlock()
		return nil, ErrNotAjax
	}
	fields := serializeForm(form)
	clicked := dom.QueryAll(form, "."+ClickedClass)
	if len(clicked) > 0 {
		if name := dom.Attr(clicked[0], "name"); name != "" {
			fields = append(fields, field{name: name, value: dom.Attr(clicked[0], "value")})
		}
	}
	for _, b := range clicked {
		dom.RemoveClass(b, ClickedClass)
	}
	method := strings.ToUpper(strings.TrimSpace(dom.Attr(form, "method")))
	if method == "" {
		method = http.MethodGet
	}
	action := p.norm.Resolve(dom.Attr(form, "action"))
	dom.AddClass(form, LoadingClass)
	p.mu.Unlock()

	defer func() {
		c.unmark(form)
		for _, b := range clicked {
			c.unmark(b)
		}
	}()

	data := encodeFields(fields)
	var (
		req *http.Request
		err error
	)
	if method == http.MethodGet {
		u, perr := url.Parse(action)
		if perr != nil {
			return nil, fmt.Errorf("pullregion: submit: %w", perr)
		}
		u.Fragment = ""
		switch {
		case data == "":
		case u.RawQuery == "":
			u.RawQuery = data
		default:
			u.RawQuery += "&" + data
		}
		req, err = http.NewRequestWithContext(ctx, method, u.String(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, action, strings.NewReader(data))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("pullregion: submit: %w", err)
	}
	return c.Do(req)
}

// Act dispatches on the element found by selector: links are clicked,
// buttons pressed, forms submitted.
func (c *Client) Act(ctx context.Context, selector string) (*Result, error) {
	el := c.page.Query(selector)
	if el == nil {
		return nil, fmt.Errorf("pullregion: act: no element matches %q", selector)
	}
	switch el.DataAtom {
	case atom.A:
		return c.Click(ctx, el)
	case atom.Form:
		return c.Submit(ctx, el)
	case atom.Input, atom.Button:
		return c.PressButton(ctx, el)
	}
	return nil, ErrNotAjax
}

// Do sends req through the page transport and applies the response body,
// whatever its status code. Transport errors are returned and nothing is
// applied. The page loading indicator is held for the duration.
func (c *Client) Do(req *http.Request) (*Result, error) {
	p := c.page
	p.loading.Start()
	defer p.loading.Done()

	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	if p.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("pullregion: request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		return nil, fmt.Errorf("pullregion: %s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("pullregion: read response: %w", err)
	}

	rep, ok := p.ApplyResponse(req.Context(), body)
	c.logger.Debug("pullregion: response applied",
		"method", req.Method, "url", req.URL.String(), "status", resp.StatusCode,
		"envelope", ok, "applied", len(rep.Applied), "unmatched", len(rep.Unmatched),
		"duration", time.Since(start))
	return &Result{StatusCode: resp.StatusCode, Envelope: ok, Report: rep}, nil
}

func (c *Client) unmark(n *html.Node) {
	c.page.mu.Lock()
	defer c.page.mu.Unlock()
	dom.RemoveClass(n, LoadingClass)
}

func isSubmit(n *html.Node) bool {
	t := strings.ToLower(dom.Attr(n, "type"))
	if n.DataAtom == atom.Button {
		return t == "" || t == "submit"
	}
	return t == "submit"
}
