// Package envelope decodes the structured JSON body of an AJAX response:
//
//	{
//	  "regions":  {"cart": "<div id=\"cart\">...</div>"},
//	  "events":   {"cart-updated": {"count": 3}},
//	  "messages": ["Saved", {"content": "Out of stock", "type": "error"}]
//	}
//
// All three keys are optional. Object keys are returned in document order.
package envelope

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Keys names the three top-level envelope keys.
type Keys struct {
	Regions  string `yaml:"regions"`
	Events   string `yaml:"events"`
	Messages string `yaml:"messages"`
}

// DefaultKeys are the standard envelope key names.
var DefaultKeys = Keys{Regions: "regions", Events: "events", Messages: "messages"}

// WithDefaults fills empty key names from DefaultKeys.
func (k Keys) WithDefaults() Keys {
	if k.Regions == "" {
		k.Regions = DefaultKeys.Regions
	}
	if k.Events == "" {
		k.Events = DefaultKeys.Events
	}
	if k.Messages == "" {
		k.Messages = DefaultKeys.Messages
	}
	return k
}

// Region is one returned region fragment.
type Region struct {
	Name string
	HTML string
}

// Event is one application event to dispatch.
type Event struct {
	Name   string
	Detail json.RawMessage
}

// Envelope is a decoded response body.
type Envelope struct {
	Regions  []Region
	Events   []Event
	Messages []json.RawMessage
}

// Empty reports whether the envelope carries nothing to apply.
func (e *Envelope) Empty() bool {
	return len(e.Regions) == 0 && len(e.Events) == 0 && len(e.Messages) == 0
}

// Parse decodes body with the default keys.
func Parse(body []byte) (*Envelope, bool) {
	return ParseKeys(body, DefaultKeys)
}

// ParseKeys decodes body. ok is false when body is not a JSON object; that
// is not an error, most responses are not envelopes.
func ParseKeys(body []byte, keys Keys) (env *Envelope, ok bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, false
	}
	keys = keys.WithDefaults()
	env = &Envelope{}

	if regions := root.Get(gjson.Escape(keys.Regions)); regions.IsObject() {
		regions.ForEach(func(k, v gjson.Result) bool {
			if v.Type == gjson.String {
				env.Regions = append(env.Regions, Region{Name: k.String(), HTML: v.String()})
			}
			return true
		})
	}

	if events := root.Get(gjson.Escape(keys.Events)); events.IsObject() {
		events.ForEach(func(k, v gjson.Result) bool {
			env.Events = append(env.Events, Event{Name: k.String(), Detail: json.RawMessage(v.Raw)})
			return true
		})
	}

	if messages := root.Get(gjson.Escape(keys.Messages)); messages.IsArray() {
		messages.ForEach(func(_, v gjson.Result) bool {
			env.Messages = append(env.Messages, NormalizeMessage(v))
			return true
		})
	}

	return env, true
}

// NormalizeMessage turns a bare string message into {"content": "..."}.
// Any other value is passed through as raw JSON.
func NormalizeMessage(v gjson.Result) json.RawMessage {
	if v.Type == gjson.String {
		b, _ := json.Marshal(Message{Content: v.String()})
		return b
	}
	return json.RawMessage(v.Raw)
}

// Message is the common shape of a status message. Servers may send extra
// fields; they survive in the raw payload dispatched to handlers.
type Message struct {
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// DecodeMessage reads the common fields of a normalised message payload.
func DecodeMessage(raw json.RawMessage) (Message, error) {
	var m Message
	err := json.Unmarshal(raw, &m)
	return m, err
}
