package storefront

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hazyhaar/pullregion/pullregion"
)

func testServer(t *testing.T) (*Service, *httptest.Server) {
	t.Helper()
	svc := New()
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)
	return svc, srv
}

func ajax(t *testing.T, method, target, regions string, form url.Values) (*http.Response, Envelope) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if regions != "" {
		req.Header.Set("X-Pull-Regions", regions)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp, env
}

func TestAdd_OnlyRequestedRegions(t *testing.T) {
	_, srv := testServer(t)

	resp, env := ajax(t, http.MethodGet, srv.URL+"/cart/add/tea?qty=3", "count,total,count,bogus", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if len(env.Regions) != 2 {
		t.Fatalf("regions: %v", env.Regions)
	}
	if env.Regions["count"] != `<span id="cart-count">3</span>` {
		t.Errorf("count: %q", env.Regions["count"])
	}
	if env.Regions["total"] != `<span class="summary total">$13.50</span>` {
		t.Errorf("total: %q", env.Regions["total"])
	}
	if string(env.Events["cart-updated"]) != `{"count":3,"total":"$13.50"}` {
		t.Errorf("event: %s", env.Events["cart-updated"])
	}
	if len(env.Messages) != 1 || env.Messages[0] != "Added 3 × Green tea" {
		t.Errorf("messages: %v", env.Messages)
	}
}

func TestAdd_WithoutHeader(t *testing.T) {
	_, srv := testServer(t)
	_, env := ajax(t, http.MethodPost, srv.URL+"/cart/add/cake", "", url.Values{"qty": {"2"}})
	if len(env.Regions) != 0 {
		t.Errorf("regions sent without header: %v", env.Regions)
	}
	if env.Events["cart-updated"] == nil {
		t.Error("event missing")
	}
}

func TestAdd_Errors(t *testing.T) {
	_, srv := testServer(t)

	resp, env := ajax(t, http.MethodGet, srv.URL+"/cart/add/nope", "cart", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: %d", resp.StatusCode)
	}
	m, ok := env.Messages[0].(map[string]any)
	if !ok || m["type"] != "error" {
		t.Errorf("message: %v", env.Messages)
	}
	if env.Events != nil {
		t.Errorf("event on error: %v", env.Events)
	}

	resp, _ = ajax(t, http.MethodGet, srv.URL+"/cart/add/tea?qty=zero", "", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad qty status: %d", resp.StatusCode)
	}
}

func TestUpdateAndClear(t *testing.T) {
	svc, srv := testServer(t)
	svc.Cart().Add("tea", 1)
	svc.Cart().Add("mug", 1)

	_, env := ajax(t, http.MethodPost, srv.URL+"/cart/update", "cart", url.Values{
		"qty-tea": {"0"}, "qty-mug": {"2"}, "qty-ghost": {"9"}, "op": {"Update"},
	})
	lines := svc.Cart().snapshot(svc.bySKU)
	if len(lines) != 1 || lines[0].SKU != "mug" || lines[0].Qty != 2 {
		t.Errorf("lines: %+v", lines)
	}
	if !strings.Contains(env.Regions["cart"], `name="qty-mug" value="2"`) {
		t.Errorf("cart region: %q", env.Regions["cart"])
	}

	ajax(t, http.MethodPost, srv.URL+"/cart/update", "", url.Values{"op": {"Clear"}})
	if n := len(svc.Cart().snapshot(svc.bySKU)); n != 0 {
		t.Errorf("after clear: %d lines", n)
	}

	svc.Cart().Add("cake", 1)
	ajax(t, http.MethodPost, srv.URL+"/cart/clear", "", nil)
	if n := len(svc.Cart().snapshot(svc.bySKU)); n != 0 {
		t.Errorf("after /cart/clear: %d lines", n)
	}
}

func TestUpdate_BadQuantityLeavesCart(t *testing.T) {
	svc, srv := testServer(t)
	svc.Cart().Add("tea", 1)
	svc.Cart().Add("mug", 1)

	for i := 0; i < 20; i++ {
		resp, env := ajax(t, http.MethodPost, srv.URL+"/cart/update", "", url.Values{
			"qty-tea": {"5"}, "qty-cake": {"3"}, "qty-mug": {"lots"}, "op": {"Update"},
		})
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("status: %d", resp.StatusCode)
		}
		if m, ok := env.Messages[0].(map[string]any); !ok || m["content"] != "Quantity for Stoneware mug must be a number" {
			t.Errorf("message: %v", env.Messages)
		}
	}
	lines := svc.Cart().snapshot(svc.bySKU)
	if len(lines) != 2 || lines[0].Qty != 1 || lines[1].Qty != 1 {
		t.Errorf("cart changed by rejected update: %+v", lines)
	}
}

func TestPlainRequestRedirects(t *testing.T) {
	_, srv := testServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(srv.URL + "/cart/add/tea")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Errorf("got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestMiddleware(t *testing.T) {
	_, srv := testServer(t)

	req, _ := http.NewRequest(http.MethodHead, srv.URL+"/", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("HEAD /: %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}

	big := url.Values{"qty-tea": {strings.Repeat("1", maxFormBytes)}}
	resp, env := ajax(t, http.MethodPost, srv.URL+"/cart/update", "", big)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("oversized form: %d %v", resp.StatusCode, env.Messages)
	}
}

// TestPullRegionClient drives the shop through a pullregion page the way a
// browser would.
func TestPullRegionClient(t *testing.T) {
	_, srv := testServer(t)
	ctx := context.Background()

	p, err := pullregion.Load(ctx, srv.URL+"/")
	if err != nil {
		t.Fatal(err)
	}
	if n := p.Bootstrap(); n != 3 {
		t.Fatalf("Bootstrap: %d watches", n)
	}
	var events []string
	p.Subscribe(pullregion.AllEvents, func(_ context.Context, ev pullregion.Event) {
		events = append(events, ev.Name)
	})
	c := pullregion.NewClient(p, nil)

	res, err := c.Click(ctx, p.Query(`a[href=/cart/add/tea]`))
	if err != nil {
		t.Fatal(err)
	}
	rules := make(map[string]pullregion.Rule)
	for _, a := range res.Report.Applied {
		rules[a.Name] = a.Rule
	}
	if rules["cart"] != pullregion.RuleExplicit || rules["count"] != pullregion.RuleID || rules["total"] != pullregion.RuleClass {
		t.Errorf("rules: %v", rules)
	}
	if !strings.Contains(p.Render(), `<span id="cart-count">1</span>`) {
		t.Error("count not updated")
	}
	if !strings.Contains(p.Render(), `<span class="summary total">$4.50</span>`) {
		t.Error("total not updated")
	}

	// The cart region now carries the update form.
	if _, err := c.Act(ctx, `form[action=/cart/add/cake] input[type=submit]`); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Act(ctx, `input[value=Clear]`); err != nil {
		t.Fatal(err)
	}
	html, _ := p.RegionHTML("cart")
	if !strings.Contains(html, "Your cart is empty.") {
		t.Errorf("cart after clear: %q", html)
	}
	if strings.Join(events, ",") != "cart-updated,statusmessage,cart-updated,statusmessage,cart-updated,statusmessage" {
		t.Errorf("events: %v", events)
	}
}
