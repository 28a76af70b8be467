package registry

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hazyhaar/pullregion/pullregion/internal/match"
)

func newRegistry() *Registry {
	return New(match.New())
}

func TestFindRegions_Order(t *testing.T) {
	r := newRegistry()
	r.Add("https://shop.test/cart/*", "cart")
	r.Add("https://shop.test/cart/add", "summary")
	r.Add("https://shop.test/cart/*", "total")
	r.Add("https://shop.test/other", "other")

	got := r.FindRegions("https://shop.test/cart/add")
	want := []string{"cart", "total", "summary"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFindRegions_None(t *testing.T) {
	r := newRegistry()
	r.Add("https://shop.test/cart", "cart")
	if got := r.FindRegions("https://shop.test/about"); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestAdd_DuplicatesKept(t *testing.T) {
	r := newRegistry()
	r.Add("https://shop.test/cart", "cart")
	r.Add("https://shop.test/cart", "cart")

	got := r.FindRegions("https://shop.test/cart")
	if !reflect.DeepEqual(got, []string{"cart", "cart"}) {
		t.Errorf("got %v", got)
	}
	if r.Len() != 1 {
		t.Errorf("Len: got %d, want 1", r.Len())
	}
}

func TestClear(t *testing.T) {
	r := newRegistry()
	r.Add("https://shop.test/cart", "cart")
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len after clear: %d", r.Len())
	}
	if got := r.FindRegions("https://shop.test/cart"); len(got) != 0 {
		t.Errorf("got %v after clear", got)
	}
	r.Add("https://shop.test/cart", "again")
	if got := r.FindRegions("https://shop.test/cart"); !reflect.DeepEqual(got, []string{"again"}) {
		t.Errorf("got %v after re-add", got)
	}
}

func TestEntries_IsCopy(t *testing.T) {
	r := newRegistry()
	r.Add("https://shop.test/cart", "cart")
	e := r.Entries()
	e[0].Regions[0] = "mutated"
	if got := r.FindRegions("https://shop.test/cart"); got[0] != "cart" {
		t.Errorf("registry mutated through Entries: %v", got)
	}
}

func TestConcurrentReaders(t *testing.T) {
	r := newRegistry()
	r.Add("https://shop.test/*", "all")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if len(r.FindRegions("https://shop.test/x")) == 0 {
					t.Error("expected a match")
					return
				}
			}
		}()
	}
	r.Add("https://shop.test/x", "x")
	wg.Wait()
}

func TestProperty_FindRegionsConcatenatesInOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := newRegistry()
		type reg struct{ pattern, region string }
		n := rapid.IntRange(0, 12).Draw(rt, "n")
		var regs []reg
		for i := 0; i < n; i++ {
			regs = append(regs, reg{
				pattern: rapid.SampledFrom([]string{
					"https://shop.test/cart",
					"https://shop.test/cart/*",
					"https://shop.test/*",
					"https://shop.test/about",
				}).Draw(rt, "pattern"),
				region: rapid.StringMatching(`[a-z]{1,5}`).Draw(rt, "region"),
			})
			r.Add(regs[i].pattern, regs[i].region)
		}
		url := rapid.SampledFrom([]string{
			"https://shop.test/cart",
			"https://shop.test/cart/add",
			"https://shop.test/about",
		}).Draw(rt, "url")

		// Expected: group by first-seen pattern, keep per-pattern order.
		m := match.New()
		var order []string
		byPattern := map[string][]string{}
		for _, rg := range regs {
			if _, ok := byPattern[rg.pattern]; !ok {
				order = append(order, rg.pattern)
			}
			byPattern[rg.pattern] = append(byPattern[rg.pattern], rg.region)
		}
		var want []string
		for _, p := range order {
			if m.Matches(url, p) {
				want = append(want, byPattern[p]...)
			}
		}
		require.Equal(rt, want, r.FindRegions(url))
	})
}
