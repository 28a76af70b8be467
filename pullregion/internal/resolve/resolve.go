// Package resolve maps returned region fragments onto the page document.
//
// For each region the first rule that finds a target wins:
//
//  1. explicit: elements carrying data-ajax-region=<name>
//  2. id: the element whose id equals the fragment root's id
//  3. class: elements carrying every class of the fragment root
//
// A fragment root with an id is resolved by id only; when no element has
// that id the class rule is not tried. When no rule finds a target a warning is logged and the document is left
// alone. Targets receive copies of the fragment root's children.
package resolve

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/hazyhaar/pullregion/pullregion/internal/dom"
	"github.com/hazyhaar/pullregion/pullregion/internal/envelope"
)

// BindAttr is the attribute that binds an element to a region name.
const BindAttr = "data-ajax-region"

// Rule names the resolution rule that applied a region.
type Rule string

const (
	RuleExplicit Rule = "explicit"
	RuleID       Rule = "id"
	RuleClass    Rule = "class"
	RuleNone     Rule = "none"
)

// Sanitizer cleans region HTML before it is parsed.
type Sanitizer interface {
	Sanitize(html string) string
}

// Applied describes one region written into the document.
type Applied struct {
	Name    string
	Rule    Rule
	Targets []*html.Node
}

// Report summarises one envelope application.
type Report struct {
	Applied   []Applied
	Unmatched []string
	Events    int
	Messages  int
}

// Resolver applies region fragments to a document.
type Resolver struct {
	sanitizer Sanitizer
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSanitizer filters every fragment through s before parsing.
func WithSanitizer(s Sanitizer) Option {
	return func(r *Resolver) { r.sanitizer = s }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ApplyRegions writes each region into the document under root, in order.
// The caller must hold whatever lock guards the document.
func (r *Resolver) ApplyRegions(root *html.Node, regions []envelope.Region) Report {
	var rep Report
	for _, reg := range regions {
		rule, targets, src := r.resolve(root, reg)
		if rule == RuleNone {
			r.logger.Warn("resolve: region returned without a matching explicit binding, id or class",
				"region", reg.Name)
			rep.Unmatched = append(rep.Unmatched, reg.Name)
			continue
		}
		for _, t := range targets {
			dom.SetInner(t, src)
		}
		r.logger.Debug("resolve: region applied",
			"region", reg.Name, "rule", rule, "targets", len(targets))
		rep.Applied = append(rep.Applied, Applied{Name: reg.Name, Rule: rule, Targets: targets})
	}
	return rep
}

// Resolve reports which rule and targets a region would use, without
// mutating the document.
func (r *Resolver) Resolve(root *html.Node, reg envelope.Region) (Rule, []*html.Node) {
	rule, targets, _ := r.resolve(root, reg)
	return rule, targets
}

func (r *Resolver) resolve(root *html.Node, reg envelope.Region) (Rule, []*html.Node, *html.Node) {
	fragment := reg.HTML
	if r.sanitizer != nil {
		fragment = r.sanitizer.Sanitize(fragment)
	}
	nodes, err := dom.ParseFragment(fragment)
	if err != nil {
		r.logger.Warn("resolve: unparsable region fragment", "region", reg.Name, "error", err)
		return RuleNone, nil, nil
	}
	src := dom.FirstElement(nodes)
	hasRoot := src != nil
	if !hasRoot {
		// Text-only fragments can still fill an explicit binding.
		src = &html.Node{Type: html.ElementNode, Data: "div"}
		for _, n := range nodes {
			src.AppendChild(n)
		}
	}

	if targets := dom.ByAttr(root, BindAttr, reg.Name); len(targets) > 0 {
		return RuleExplicit, targets, src
	}
	if !hasRoot {
		return RuleNone, nil, nil
	}
	if id := dom.Attr(src, "id"); id != "" {
		if t := dom.ByID(root, id); t != nil {
			return RuleID, []*html.Node{t}, src
		}
		return RuleNone, nil, nil
	}
	if targets := dom.ByClasses(root, dom.Classes(src)); len(targets) > 0 {
		return RuleClass, targets, src
	}
	return RuleNone, nil, nil
}
