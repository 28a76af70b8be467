package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/pullregion/pullregion/internal/dom"
)

func TestFetch(t *testing.T) {
	var ua string
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/shop", http.StatusFound)
	})
	mux.HandleFunc("/shop", func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Write([]byte(`<html><body><div id="cart">0 items</div></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(WithUserAgent("test-agent"))
	res, err := f.Fetch(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatal(err)
	}
	if res.URL != srv.URL+"/shop" {
		t.Errorf("final URL: got %q", res.URL)
	}
	if ua != "test-agent" {
		t.Errorf("user agent: %q", ua)
	}
	if n := dom.ByID(res.Doc.Root, "cart"); n == nil || dom.Text(n) != "0 items" {
		t.Error("document not parsed")
	}
}

func TestFetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := New().Fetch(context.Background(), srv.URL); err == nil {
		t.Error("expected error for 404")
	}
}
