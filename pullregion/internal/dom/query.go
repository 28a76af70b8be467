package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// ByAttr returns every element under root whose attribute key equals val,
// in document order.
func ByAttr(root *html.Node, key, val string) []*html.Node {
	return findAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && HasAttr(n, key) && Attr(n, key) == val
	})
}

// WithAttr returns every element under root carrying the attribute key.
func WithAttr(root *html.Node, key string) []*html.Node {
	return findAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && HasAttr(n, key)
	})
}

// ByID returns the first element under root with the given id.
func ByID(root *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	return findFirst(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && Attr(n, "id") == id
	})
}

// ByClasses returns every element under root whose class list contains all
// of classes. Nil when classes is empty.
func ByClasses(root *html.Node, classes []string) []*html.Node {
	if len(classes) == 0 {
		return nil
	}
	return findAll(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		have := Classes(n)
		for _, c := range classes {
			if !contains(have, c) {
				return false
			}
		}
		return true
	})
}

// QueryAll returns all elements matching a simple CSS selector.
// Supported:
//   - tag: "form", "a"
//   - #id, .class (repeatable: ".summary.total")
//   - [attr], [attr=val], [attr="val"]
//   - compounds of the above: "a.ajax", "form[data-target=ajax]"
//   - descendant combinator (space): "form.ajax input[type=submit]"
//   - selector lists (comma): "a.ajax, a[data-target=ajax]"
func QueryAll(root *html.Node, selector string) []*html.Node {
	var out []*html.Node
	seen := make(map[*html.Node]bool)
	for _, alt := range strings.Split(selector, ",") {
		for _, n := range queryChain(root, strings.Fields(alt)) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	if len(out) > 1 {
		out = documentOrder(root, seen)
	}
	return out
}

// Query returns the first element matching selector, or nil.
func Query(root *html.Node, selector string) *html.Node {
	if all := QueryAll(root, selector); len(all) > 0 {
		return all[0]
	}
	return nil
}

// Matches reports whether n matches selector. Descendant combinators are
// checked against n's ancestors.
func Matches(n *html.Node, selector string) bool {
	for _, alt := range strings.Split(selector, ",") {
		parts := strings.Fields(alt)
		if len(parts) == 0 || !parseCompound(parts[len(parts)-1]).match(n) {
			continue
		}
		if ancestorsMatch(n.Parent, parts[:len(parts)-1]) {
			return true
		}
	}
	return false
}

func ancestorsMatch(n *html.Node, parts []string) bool {
	if len(parts) == 0 {
		return true
	}
	last := parseCompound(parts[len(parts)-1])
	for p := n; p != nil; p = p.Parent {
		if last.match(p) && ancestorsMatch(p.Parent, parts[:len(parts)-1]) {
			return true
		}
	}
	return false
}

func queryChain(root *html.Node, parts []string) []*html.Node {
	if len(parts) == 0 {
		return nil
	}
	first := parseCompound(parts[0])
	matches := findAll(root, first.match)

	for i := 1; i < len(parts); i++ {
		sel := parseCompound(parts[i])
		seen := make(map[*html.Node]bool)
		var next []*html.Node
		for _, parent := range matches {
			for c := parent.FirstChild; c != nil; c = c.NextSibling {
				for _, n := range findAll(c, sel.match) {
					if !seen[n] {
						seen[n] = true
						next = append(next, n)
					}
				}
			}
		}
		matches = next
	}
	return matches
}

type attrSel struct {
	key    string
	val    string
	hasVal bool
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrSel
}

// parseCompound parses "tag#id.class[attr=val]" in any order after the tag.
func parseCompound(sel string) compound {
	var c compound
	i := 0
	for i < len(sel) && !strings.ContainsRune("#.[", rune(sel[i])) {
		i++
	}
	c.tag = strings.ToLower(sel[:i])
	if c.tag == "*" {
		c.tag = ""
	}

	for i < len(sel) {
		switch sel[i] {
		case '[':
			end := strings.IndexByte(sel[i:], ']')
			if end < 0 {
				end = len(sel) - i
			}
			body := sel[i+1 : i+end]
			if eq := strings.IndexByte(body, '='); eq >= 0 {
				c.attrs = append(c.attrs, attrSel{
					key:    body[:eq],
					val:    strings.Trim(body[eq+1:], `"'`),
					hasVal: true,
				})
			} else {
				c.attrs = append(c.attrs, attrSel{key: body})
			}
			i += end + 1
		case '#', '.':
			j := i + 1
			for j < len(sel) && !strings.ContainsRune("#.[", rune(sel[j])) {
				j++
			}
			if sel[i] == '#' {
				c.id = sel[i+1 : j]
			} else {
				c.classes = append(c.classes, sel[i+1:j])
			}
			i = j
		default:
			i++
		}
	}
	return c
}

func (c compound) match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && n.Data != c.tag {
		return false
	}
	if c.id != "" && Attr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := Classes(n)
		for _, cl := range c.classes {
			if !contains(have, cl) {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		if !HasAttr(n, a.key) {
			return false
		}
		if a.hasVal && Attr(n, a.key) != a.val {
			return false
		}
	}
	return true
}

func findAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if pred(n) {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results
}

func findFirst(root *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := findFirst(c, pred); n != nil {
			return n
		}
	}
	return nil
}

func documentOrder(root *html.Node, set map[*html.Node]bool) []*html.Node {
	return findAll(root, func(n *html.Node) bool { return set[n] })
}
