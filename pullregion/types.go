// CLAUDE:SUMMARY Public aliases for internal types and the JSON watch-map decoder.
package pullregion

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/hazyhaar/pullregion/pullregion/internal/dom"
	"github.com/hazyhaar/pullregion/pullregion/internal/envelope"
	"github.com/hazyhaar/pullregion/pullregion/internal/eventbus"
	"github.com/hazyhaar/pullregion/pullregion/internal/match"
	"github.com/hazyhaar/pullregion/pullregion/internal/resolve"
)

// Document is a parsed HTML document.
type Document = dom.Document

// ParseDocument parses a full HTML document.
func ParseDocument(s string) (*Document, error) { return dom.ParseString(s) }

// Report summarises one applied response.
type Report = resolve.Report

// Applied describes one region written into the document.
type Applied = resolve.Applied

// Rule names the resolution rule that applied a region.
type Rule = resolve.Rule

const (
	RuleExplicit = resolve.RuleExplicit
	RuleID       = resolve.RuleID
	RuleClass    = resolve.RuleClass
	RuleNone     = resolve.RuleNone
)

// Sanitizer cleans region HTML before it enters the document.
type Sanitizer = resolve.Sanitizer

// Keys names the top-level envelope fields.
type Keys = envelope.Keys

// Message is the common shape of a status message payload.
type Message = envelope.Message

// DecodeMessage reads a StatusMessage event payload.
func DecodeMessage(raw json.RawMessage) (Message, error) { return envelope.DecodeMessage(raw) }

// Event is a dispatched server event.
type Event = eventbus.Event

// Handler receives events. Handlers run synchronously on the goroutine
// that applied the response.
type Handler = eventbus.Handler

const (
	// StatusMessage is the event name used for every envelope message.
	StatusMessage = eventbus.StatusMessage
	// AllEvents subscribes to every event.
	AllEvents = eventbus.All
)

// MatchMode selects how watch patterns are compiled.
type MatchMode = match.Mode

const (
	// MatchLegacy escapes only dots; other regex syntax in patterns is live.
	MatchLegacy = match.ModeLegacy
	// MatchGlob escapes everything but "*".
	MatchGlob = match.ModeGlob
)

// ParseMatchMode maps "legacy" or "glob" to a MatchMode; anything else is
// MatchLegacy.
func ParseMatchMode(s string) MatchMode { return match.ParseMode(s) }

// ParseWatchMap decodes a JSON object mapping URL patterns to a region name
// or an array of region names. Key order is kept. Non-string array items
// are skipped.
func ParseWatchMap(data []byte) ([]Watch, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("pullregion: watch map: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("pullregion: watch map: want a JSON object")
	}
	var out []Watch
	var err error
	root.ForEach(func(k, v gjson.Result) bool {
		w := Watch{URL: k.String()}
		switch {
		case v.Type == gjson.String:
			w.Regions = []string{v.String()}
		case v.IsArray():
			for _, r := range v.Array() {
				if r.Type == gjson.String {
					w.Regions = append(w.Regions, r.String())
				}
			}
		default:
			err = fmt.Errorf("pullregion: watch map: %q: want a string or an array", w.URL)
			return false
		}
		out = append(out, w)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
