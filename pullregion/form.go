package pullregion

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/pullregion/pullregion/internal/dom"
)

type field struct {
	name, value string
}

// serializeForm collects the successful controls of form in document
// order: named, enabled, not a button or file input, checkboxes and radios
// only when checked, every selected option of a select.
func serializeForm(form *html.Node) []field {
	var out []field
	var walk func(n *html.Node, disabled bool)
	walk = func(n *html.Node, disabled bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			off := disabled || dom.HasAttr(c, "disabled")
			switch c.DataAtom {
			case atom.Input:
				out = appendInput(out, c, off)
			case atom.Textarea:
				if name := dom.Attr(c, "name"); name != "" && !off {
					out = append(out, field{name, crlf(dom.Text(c))})
				}
			case atom.Select:
				if name := dom.Attr(c, "name"); name != "" && !off {
					for _, v := range selectedOptions(c) {
						out = append(out, field{name, v})
					}
				}
			case atom.Fieldset:
				walk(c, off)
			default:
				walk(c, disabled)
			}
		}
	}
	walk(form, false)
	return out
}

func appendInput(out []field, n *html.Node, disabled bool) []field {
	name := dom.Attr(n, "name")
	if name == "" || disabled {
		return out
	}
	switch strings.ToLower(dom.Attr(n, "type")) {
	case "submit", "button", "image", "reset", "file":
		return out
	case "checkbox", "radio":
		if !dom.HasAttr(n, "checked") {
			return out
		}
		if !dom.HasAttr(n, "value") {
			return append(out, field{name, "on"})
		}
	}
	return append(out, field{name, crlf(dom.Attr(n, "value"))})
}

// selectedOptions returns the values a select submits. A single select
// with nothing marked selected submits its first enabled option.
func selectedOptions(sel *html.Node) []string {
	opts := dom.QueryAll(sel, "option")
	var vals []string
	for _, o := range opts {
		if dom.HasAttr(o, "selected") && !optionDisabled(o) {
			vals = append(vals, optionValue(o))
		}
	}
	if len(vals) == 0 && !dom.HasAttr(sel, "multiple") {
		for _, o := range opts {
			if !optionDisabled(o) {
				return []string{optionValue(o)}
			}
		}
	}
	if !dom.HasAttr(sel, "multiple") && len(vals) > 1 {
		vals = vals[len(vals)-1:]
	}
	return vals
}

func optionDisabled(o *html.Node) bool {
	if dom.HasAttr(o, "disabled") {
		return true
	}
	g := o.Parent
	return g != nil && g.DataAtom == atom.Optgroup && dom.HasAttr(g, "disabled")
}

func optionValue(o *html.Node) string {
	if dom.HasAttr(o, "value") {
		return dom.Attr(o, "value")
	}
	return strings.Join(strings.Fields(dom.Text(o)), " ")
}

func crlf(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// encodeFields url-encodes fields in order, spaces as "+".
func encodeFields(fields []field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = url.QueryEscape(f.name) + "=" + url.QueryEscape(f.value)
	}
	return strings.Join(parts, "&")
}
