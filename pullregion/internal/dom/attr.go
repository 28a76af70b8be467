package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr returns the value of an attribute on n.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries the attribute at all.
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces an attribute on n.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr drops an attribute from n if present.
func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// Classes returns the whitespace-separated class list of n.
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

// HasClass reports whether n carries class c.
func HasClass(n *html.Node, c string) bool {
	for _, have := range Classes(n) {
		if have == c {
			return true
		}
	}
	return false
}

// AddClass adds each class not already present, preserving existing order.
func AddClass(n *html.Node, classes ...string) {
	have := Classes(n)
	changed := false
	for _, c := range classes {
		if c == "" || contains(have, c) {
			continue
		}
		have = append(have, c)
		changed = true
	}
	if changed {
		SetAttr(n, "class", strings.Join(have, " "))
	}
}

// RemoveClass removes each given class. The attribute is kept, possibly
// empty, as a browser would.
func RemoveClass(n *html.Node, classes ...string) {
	if !HasAttr(n, "class") {
		return
	}
	have := Classes(n)
	out := have[:0]
	for _, c := range have {
		if !contains(classes, c) {
			out = append(out, c)
		}
	}
	SetAttr(n, "class", strings.Join(out, " "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
