package idgen

import (
	"sort"
	"strings"
	"testing"
)

func TestUUIDv7_Format(t *testing.T) {
	id := UUIDv7()()
	if len(id) != 36 || len(strings.Split(id, "-")) != 5 {
		t.Fatalf("UUIDv7: unexpected format %q", id)
	}
	if id[14] != '7' {
		t.Fatalf("UUIDv7: version nibble %q in %q", id[14], id)
	}
}

func TestUUIDv7_SortsByCreation(t *testing.T) {
	gen := UUIDv7()
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = gen()
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatal("UUIDv7: ids not in creation order")
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("UUIDv7: duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestPrefixed(t *testing.T) {
	id := Prefixed("jrn_", UUIDv7())()
	if !strings.HasPrefix(id, "jrn_") {
		t.Fatalf("Prefixed: got %q", id)
	}
	if _, err := Parse(strings.TrimPrefix(id, "jrn_")); err != nil {
		t.Fatalf("Prefixed: inner id invalid: %v", err)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse(New()); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Fatal("expected error")
	}
}
