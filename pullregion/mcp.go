// CLAUDE:SUMMARY Registers the pullregion MCP tools: watch, clear, find, apply, region and act.
package pullregion

import (
	"context"
	"fmt"
	"net/url"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/net/html"

	"github.com/hazyhaar/pullregion/kit"
	"github.com/hazyhaar/pullregion/pullregion/internal/render"
)

// RegisterMCP registers the page tools on an MCP server.
func (p *Page) RegisterMCP(srv *mcp.Server) {
	p.registerWatchTool(srv)
	p.registerClearTool(srv)
	p.registerFindTool(srv)
	p.registerApplyTool(srv)
	p.registerRegionTool(srv)
}

// RegisterMCP registers the page tools plus pullregion_act, which sends
// requests through this client.
func (c *Client) RegisterMCP(srv *mcp.Server) {
	c.page.RegisterMCP(srv)
	c.registerActTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func (p *Page) tool(srv *mcp.Server, tool *mcp.Tool, endpoint kit.Endpoint, decode func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error)) {
	kit.RegisterMCPTool(srv, tool, kit.Logging(p.logger, tool.Name)(endpoint), decode)
}

// ReportView is the JSON form of a Report.
type ReportView struct {
	Envelope  bool          `json:"envelope"`
	Applied   []AppliedView `json:"applied"`
	Unmatched []string      `json:"unmatched"`
	Events    int           `json:"events"`
	Messages  int           `json:"messages"`
}

// AppliedView is the JSON form of an Applied.
type AppliedView struct {
	Name    string `json:"name"`
	Rule    string `json:"rule"`
	Targets int    `json:"targets"`
}

// View converts rep for JSON output.
func View(rep Report, envelope bool) ReportView {
	v := ReportView{
		Envelope:  envelope,
		Applied:   make([]AppliedView, len(rep.Applied)),
		Unmatched: rep.Unmatched,
		Events:    rep.Events,
		Messages:  rep.Messages,
	}
	if v.Unmatched == nil {
		v.Unmatched = []string{}
	}
	for i, a := range rep.Applied {
		v.Applied[i] = AppliedView{Name: a.Name, Rule: string(a.Rule), Targets: len(a.Targets)}
	}
	return v
}

// --- watch ---

type watchRequest struct {
	URL      string   `json:"url"`
	Regions  []string `json:"regions"`
	Selector string   `json:"selector,omitempty"`
}

type watchResponse struct {
	Patterns int    `json:"patterns"`
	Bound    string `json:"bound,omitempty"`
}

func (p *Page) registerWatchTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pullregion_watch",
		Description: "Watch regions for a URL pattern. Requests to matching URLs ask the server for these regions.",
		InputSchema: inputSchema(map[string]any{
			"url":      map[string]any{"type": "string", "description": "URL pattern, relative to the page; * matches anything"},
			"regions":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Region names"},
			"selector": map[string]any{"type": "string", "description": "Optional: bind the single element matching this selector to the region"},
		}, []string{"url", "regions"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*watchRequest)
		if r.URL == "" || len(r.Regions) == 0 {
			return nil, fmt.Errorf("url and at least one region are required")
		}
		var targets []*html.Node
		resp := &watchResponse{}
		if r.Selector != "" {
			els := p.QueryAll(r.Selector)
			if len(els) != 1 {
				return nil, fmt.Errorf("selector %q matches %d elements, want 1", r.Selector, len(els))
			}
			targets = els
			resp.Bound = r.Selector
		}
		for _, region := range r.Regions {
			p.PullRegionForURL(r.URL, region, targets...)
		}
		resp.Patterns = len(p.Watches())
		return resp, nil
	}

	p.tool(srv, tool, endpoint, kit.DecodeJSON[watchRequest]())
}

// --- clear ---

type clearRequest struct{}

func (p *Page) registerClearTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pullregion_clear",
		Description: "Remove every watch. Element bindings in the page are kept.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		p.ClearPullRegions()
		return map[string]bool{"cleared": true}, nil
	}

	p.tool(srv, tool, endpoint, kit.DecodeJSON[clearRequest]())
}

// --- find ---

type findRequest struct {
	URL string `json:"url"`
}

type findResponse struct {
	URL     string   `json:"url"`
	Header  string   `json:"header"`
	Regions []string `json:"regions"`
}

func (p *Page) registerFindTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pullregion_find",
		Description: "List the regions that a request to the URL would ask for.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Request URL, absolute or relative to the page"},
		}, []string{"url"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*findRequest)
		regions := p.FindRegionsForURL(r.URL)
		if regions == nil {
			regions = []string{}
		}
		return &findResponse{URL: p.norm.Normalize(r.URL), Header: p.header, Regions: regions}, nil
	}

	p.tool(srv, tool, endpoint, kit.DecodeJSON[findRequest]())
}

// --- apply ---

type applyRequest struct {
	Body string `json:"body"`
}

func (p *Page) registerApplyTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pullregion_apply",
		Description: "Apply a JSON response body (regions, events, messages) to the page and report what changed.",
		InputSchema: inputSchema(map[string]any{
			"body": map[string]any{"type": "string", "description": "Raw response body"},
		}, []string{"body"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*applyRequest)
		rep, ok := p.ApplyResponse(ctx, []byte(r.Body))
		return View(rep, ok), nil
	}

	p.tool(srv, tool, endpoint, kit.DecodeJSON[applyRequest]())
}

// --- region ---

type regionRequest struct {
	Name   string `json:"name"`
	Format string `json:"format,omitempty"`
}

type regionResponse struct {
	Name    string `json:"name"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

func (p *Page) registerRegionTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pullregion_region",
		Description: "Read the current content of a region, as HTML or Markdown.",
		InputSchema: inputSchema(map[string]any{
			"name":   map[string]any{"type": "string", "description": "Region name (data-ajax-region value, or element id)"},
			"format": map[string]any{"type": "string", "enum": []any{"html", "markdown"}, "description": "Output format (default: markdown)"},
		}, []string{"name"}),
	}

	md := render.NewMarkdown()
	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*regionRequest)
		content, ok := p.RegionHTML(r.Name)
		if !ok {
			return nil, fmt.Errorf("region %q not found in page", r.Name)
		}
		format := r.Format
		if format == "" {
			format = "markdown"
		}
		switch format {
		case "html":
		case "markdown":
			out, err := md.Convert(content, p.domain())
			if err != nil {
				return nil, err
			}
			content = out
		default:
			return nil, fmt.Errorf("unknown format %q", format)
		}
		return &regionResponse{Name: r.Name, Format: format, Content: content}, nil
	}

	p.tool(srv, tool, endpoint, kit.DecodeJSON[regionRequest]())
}

// --- act ---

type actRequest struct {
	Selector string `json:"selector"`
}

type actResponse struct {
	StatusCode int        `json:"status_code"`
	Report     ReportView `json:"report"`
}

func (c *Client) registerActTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pullregion_act",
		Description: "Click an ajax link, press a submit button or submit an ajax form, and apply the server response.",
		InputSchema: inputSchema(map[string]any{
			"selector": map[string]any{"type": "string", "description": "CSS selector of the link, button or form"},
		}, []string{"selector"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*actRequest)
		res, err := c.Act(ctx, r.Selector)
		if err != nil {
			return nil, err
		}
		return &actResponse{StatusCode: res.StatusCode, Report: View(res.Report, res.Envelope)}, nil
	}

	c.page.tool(srv, tool, endpoint, kit.DecodeJSON[actRequest]())
}

// domain returns scheme://host of the page URL, for absolute links in
// rendered Markdown.
func (p *Page) domain() string {
	u, err := url.Parse(p.url)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// RegionMarkdown renders a region as Markdown.
func (p *Page) RegionMarkdown(region string) (string, error) {
	content, ok := p.RegionHTML(region)
	if !ok {
		return "", fmt.Errorf("pullregion: region %q not found", region)
	}
	return render.NewMarkdown().Convert(content, p.domain())
}
