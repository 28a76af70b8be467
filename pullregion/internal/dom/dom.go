// Package dom wraps a golang.org/x/net/html tree as the page document that
// region pulls are applied to. It provides the small set of lookups and
// mutations the resolver and the interaction glue need: attribute, id and
// class queries, a simple CSS selector subset, inner-HTML replacement and
// class toggling.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML page.
type Document struct {
	Root *html.Node
}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return &Document{Root: root}, nil
}

// ParseString parses a complete HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Body returns the <body> element, or nil when the tree has none.
func (d *Document) Body() *html.Node {
	return findFirst(d.Root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
}

// Render serialises the whole document.
func (d *Document) Render() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.Root); err != nil {
		return ""
	}
	return buf.String()
}

// ParseFragment parses an HTML fragment in a <body> context. The returned
// nodes are detached from any tree.
func ParseFragment(s string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}

// FirstElement returns the first element node in nodes, skipping text and
// comments. Nil when there is none.
func FirstElement(nodes []*html.Node) *html.Node {
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n
		}
	}
	return nil
}

// Clone deep-copies n. The copy has no parent or siblings.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(Clone(ch))
	}
	return c
}

// SetInner replaces the children of target with copies of the children of
// src. src is left untouched, so one fragment can fill several targets.
func SetInner(target, src *html.Node) {
	for c := target.FirstChild; c != nil; {
		next := c.NextSibling
		target.RemoveChild(c)
		c = next
	}
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		target.AppendChild(Clone(c))
	}
}

// InnerHTML serialises the children of n.
func InnerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

// OuterHTML serialises n itself.
func OuterHTML(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// Closest returns the nearest ancestor of n (n included) that is an element
// with the given tag, or nil.
func Closest(n *html.Node, tag atom.Atom) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.DataAtom == tag {
			return n
		}
	}
	return nil
}
