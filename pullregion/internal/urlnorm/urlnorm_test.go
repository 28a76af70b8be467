package urlnorm

import "testing"

func TestNormalize(t *testing.T) {
	n := New("https://shop.example.com/catalog/index.html")

	tests := []struct {
		in   string
		want string
	}{
		{"/cart", "https://shop.example.com/cart"},
		{"cart/add", "https://shop.example.com/catalog/cart/add"},
		{"/cart?qty=2", "https://shop.example.com/cart"},
		{"/cart#top", "https://shop.example.com/cart"},
		{"/cart?#", "https://shop.example.com/cart"},
		{"/cart?", "https://shop.example.com/cart"},
		{"https://other.example.com/x?y=1#z", "https://other.example.com/x"},
		{"/products/*", "https://shop.example.com/products/*"},
		{"", "https://shop.example.com/catalog/index.html"},
		{"../about", "https://shop.example.com/about"},
		{"./cart/", "https://shop.example.com/catalog/cart/"},
		{"//cdn.example.com/x", "https://cdn.example.com/x"},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_NoBase(t *testing.T) {
	n := New("")
	if got := n.Normalize("/cart?x=1"); got != "/cart" {
		t.Errorf("got %q", got)
	}
}

func TestNormalize_Unparsable(t *testing.T) {
	n := New("https://shop.example.com/")
	if got := n.Normalize("http://[::1/x?y"); got != "http://[::1/x" {
		t.Errorf("got %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New("https://shop.example.com/")
	once := n.Normalize("/a/b?c#d")
	if twice := n.Normalize(once); twice != once {
		t.Errorf("not idempotent: %q then %q", once, twice)
	}
}

func TestResolve_KeepsQuery(t *testing.T) {
	n := New("https://shop.example.com/catalog/")
	if got := n.Resolve("add?sku=tea"); got != "https://shop.example.com/catalog/add?sku=tea" {
		t.Errorf("got %q", got)
	}
}

func TestNormalize_Canonical(t *testing.T) {
	n := New("https://shop.example.com/")

	tests := []struct {
		in   string
		want string
	}{
		{"https://shop.example.com", "https://shop.example.com/"},
		{"https://SHOP.Example.com/Cart", "https://shop.example.com/Cart"},
		{"HTTPS://shop.example.com/cart", "https://shop.example.com/cart"},
		{"https://shop.example.com:443/cart", "https://shop.example.com/cart"},
		{"http://shop.example.com:80/cart", "http://shop.example.com/cart"},
		{"http://shop.example.com:8080/cart", "http://shop.example.com:8080/cart"},
		{"https://shop.example.com:80/cart", "https://shop.example.com:80/cart"},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_KeepsPatternSyntax(t *testing.T) {
	n := New("https://shop.example.com/")

	tests := []struct {
		in   string
		want string
	}{
		{"/catégorie/*", "https://shop.example.com/cat%C3%A9gorie/*"},
		{"/my cart/*", "https://shop.example.com/my%20cart/*"},
		{"/cart/(add|remove)/*", "https://shop.example.com/cart/(add|remove)/*"},
		{"/a^b/*", "https://shop.example.com/a^b/*"},
		{"/x{1}/*", "https://shop.example.com/x%7B1%7D/*"},
		{"/cat%C3%A9gorie/th%C3%A9", "https://shop.example.com/cat%C3%A9gorie/th%C3%A9"},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	// Raw and pre-escaped forms of the same path compare equal.
	if a, b := n.Normalize("/catégorie/thé"), n.Normalize("/cat%C3%A9gorie/th%C3%A9"); a != b {
		t.Errorf("%q != %q", a, b)
	}
}
