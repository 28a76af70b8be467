package envelope

import (
	"encoding/json"
	"testing"
)

func TestParse_Full(t *testing.T) {
	body := []byte(`{
		"regions": {"cart": "<div id=\"cart\">X</div>", "bogus": 42, "summary": "<p class=\"s\">S</p>"},
		"events": {"cart-updated": {"count": 3}, "ping": null},
		"messages": ["Hello", {"content": "Bye", "type": "error"}]
	}`)

	env, ok := Parse(body)
	if !ok {
		t.Fatal("expected envelope")
	}

	if len(env.Regions) != 2 {
		t.Fatalf("regions: got %d, want 2 (non-string skipped)", len(env.Regions))
	}
	if env.Regions[0].Name != "cart" || env.Regions[1].Name != "summary" {
		t.Errorf("region order: %+v", env.Regions)
	}
	if env.Regions[0].HTML != `<div id="cart">X</div>` {
		t.Errorf("region html: %q", env.Regions[0].HTML)
	}

	if len(env.Events) != 2 || env.Events[0].Name != "cart-updated" || env.Events[1].Name != "ping" {
		t.Fatalf("events: %+v", env.Events)
	}
	var detail struct{ Count int }
	if err := json.Unmarshal(env.Events[0].Detail, &detail); err != nil || detail.Count != 3 {
		t.Errorf("event detail: %s (%v)", env.Events[0].Detail, err)
	}

	if len(env.Messages) != 2 {
		t.Fatalf("messages: got %d", len(env.Messages))
	}
	m0, err := DecodeMessage(env.Messages[0])
	if err != nil || m0.Content != "Hello" {
		t.Errorf("message 0: %s", env.Messages[0])
	}
	if string(env.Messages[0]) != `{"content":"Hello"}` {
		t.Errorf("message 0 normalised form: %s", env.Messages[0])
	}
	m1, _ := DecodeMessage(env.Messages[1])
	if m1.Content != "Bye" || m1.Type != "error" {
		t.Errorf("message 1: %+v", m1)
	}
}

func TestParse_EachStringNormalisedFromItsOwnElement(t *testing.T) {
	env, ok := Parse([]byte(`{"messages": ["one", "two", "three"]}`))
	if !ok {
		t.Fatal("expected envelope")
	}
	want := []string{"one", "two", "three"}
	for i, raw := range env.Messages {
		m, _ := DecodeMessage(raw)
		if m.Content != want[i] {
			t.Errorf("message %d: got %q, want %q", i, m.Content, want[i])
		}
	}
}

func TestParse_NotAnEnvelope(t *testing.T) {
	for _, body := range []string{
		``,
		`<html></html>`,
		`[1,2,3]`,
		`"string"`,
		`null`,
		`{"regions": `,
	} {
		if _, ok := Parse([]byte(body)); ok {
			t.Errorf("Parse(%q): expected ok=false", body)
		}
	}
}

func TestParse_WrongShapesIgnored(t *testing.T) {
	env, ok := Parse([]byte(`{"regions": "x", "events": [1], "messages": {"a": 1}}`))
	if !ok {
		t.Fatal("object body is an envelope")
	}
	if !env.Empty() {
		t.Errorf("expected empty envelope, got %+v", env)
	}
}

func TestParseKeys_Custom(t *testing.T) {
	body := []byte(`{"blocks": {"cart": "<div id=\"c\"></div>"}, "notices": ["hi"]}`)
	env, ok := ParseKeys(body, Keys{Regions: "blocks", Messages: "notices"})
	if !ok {
		t.Fatal("expected envelope")
	}
	if len(env.Regions) != 1 || len(env.Messages) != 1 {
		t.Errorf("custom keys: %+v", env)
	}
}
