package storefront

import (
	"fmt"
	"sync"
)

// Product is a catalog entry. Prices are in cents.
type Product struct {
	SKU   string
	Name  string
	Price int
}

// DefaultCatalog is the demo catalog.
var DefaultCatalog = []Product{
	{SKU: "tea", Name: "Green tea", Price: 450},
	{SKU: "cake", Name: "Lemon cake", Price: 900},
	{SKU: "mug", Name: "Stoneware mug", Price: 1250},
}

// Line is one cart line.
type Line struct {
	Product
	Qty int
}

// Subtotal returns Price * Qty.
func (l Line) Subtotal() int { return l.Price * l.Qty }

// Cart is an in-memory cart. Lines keep first-add order.
type Cart struct {
	mu    sync.Mutex
	order []string
	qty   map[string]int
}

func newCart() *Cart {
	return &Cart{qty: make(map[string]int)}
}

// Add adds qty units of sku.
func (c *Cart) Add(sku string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.qty[sku]; !ok {
		c.order = append(c.order, sku)
	}
	c.qty[sku] += qty
	if c.qty[sku] <= 0 {
		c.remove(sku)
	}
}

// Set sets the quantity of sku; zero or less removes the line.
func (c *Cart) Set(sku string, qty int) {
	c.setAll([]lineQty{{SKU: sku, Qty: qty}})
}

type lineQty struct {
	SKU string
	Qty int
}

// setAll applies several Set calls under one lock, in order.
func (c *Cart) setAll(updates []lineQty) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range updates {
		if u.Qty <= 0 {
			c.remove(u.SKU)
			continue
		}
		if _, ok := c.qty[u.SKU]; !ok {
			c.order = append(c.order, u.SKU)
		}
		c.qty[u.SKU] = u.Qty
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.qty = make(map[string]int)
}

func (c *Cart) remove(sku string) {
	delete(c.qty, sku)
	for i, s := range c.order {
		if s == sku {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
}

// snapshot returns the cart lines using catalog for names and prices.
func (c *Cart) snapshot(catalog map[string]Product) []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]Line, 0, len(c.order))
	for _, sku := range c.order {
		lines = append(lines, Line{Product: catalog[sku], Qty: c.qty[sku]})
	}
	return lines
}

func count(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Qty
	}
	return n
}

func total(lines []Line) int {
	t := 0
	for _, l := range lines {
		t += l.Subtotal()
	}
	return t
}

// money formats cents as dollars.
func money(cents int) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
