package pullregion

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// formAction accepts http(s) and relative URLs only.
var formAction = regexp.MustCompile(`^(?:https?://|[/?#]|[A-Za-z0-9._~%-]+(?:[/?#]|$))`)

// NewSanitizer returns a bluemonday policy suited to region fragments:
// user-generated-content rules, plus ids, classes, data attributes and the
// form controls that region markup commonly carries. Scripts, event
// handler attributes and javascript: URLs are removed.
func NewSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id", "class").Globally()
	p.AllowDataAttributes()
	p.AllowElements("form", "input", "button", "select", "option", "optgroup", "textarea", "label", "fieldset")
	p.AllowAttrs("action").Matching(formAction).OnElements("form")
	p.AllowAttrs("method").OnElements("form")
	p.AllowAttrs("type", "name", "value", "checked", "disabled", "selected", "multiple", "placeholder", "min", "max", "step").
		OnElements("input", "button", "select", "option", "textarea")
	p.AllowAttrs("for").OnElements("label")
	return p
}
