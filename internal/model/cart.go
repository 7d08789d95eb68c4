// Package model defines data structures for the local cart and the
// storefront cart protocol served by the emulator.
package model

import (
	"fmt"
	"math"
	"strings"
)

// === Cart Domain ===

// CartItem is one purchasable line in the cart.
// Price is in major currency units (e.g. 123.45); minor-unit conversion
// happens only at the wire boundary (cart responses, checkout payload).
type CartItem struct {
	ID        string  `json:"id"`
	VariantID string  `json:"variantId,omitempty"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
	URL       string  `json:"url,omitempty"`
	Handle    string  `json:"handle,omitempty"`

	// Optional commerce fields passed through to the checkout payload.
	SKU          string `json:"sku,omitempty"`
	Vendor       string `json:"vendor,omitempty"`
	VariantTitle string `json:"variantTitle,omitempty"`
	ProductType  string `json:"productType,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Key returns the line's primary identity: variant ID when present,
// product ID otherwise.
func (i CartItem) Key() string {
	if i.VariantID != "" {
		return i.VariantID
	}
	return i.ID
}

// Matches reports whether other denotes the same line item.
// When both sides carry a variant ID the comparison is variant-only.
// Without variant IDs the product ID decides, narrowed by handle when
// the candidate supplies one.
func (i CartItem) Matches(other CartItem) bool {
	if i.VariantID != "" && other.VariantID != "" {
		return i.VariantID == other.VariantID
	}
	if other.Handle != "" {
		return i.ID == other.Key() && i.Handle == other.Handle
	}
	return i.ID == other.Key()
}

// Normalize backfills derived fields on a freshly added line: the
// variant ID falls back to the product ID, and missing URL is rebuilt
// from the handle. Quantity is clamped to at least 1.
func (i *CartItem) Normalize() {
	if i.VariantID == "" {
		i.VariantID = i.ID
	}
	if i.URL == "" && i.Handle != "" {
		i.URL = fmt.Sprintf("/products/%s", i.Handle)
	}
	if i.Quantity < 1 {
		i.Quantity = 1
	}
}

// Validate reports data-quality problems on the line. A zero or
// negative price is detectable here but only blocks at checkout time;
// callers on the add path degrade and warn instead.
func (i CartItem) Validate() error {
	if i.ID == "" && i.VariantID == "" {
		return NewValidationError("id", "product identifier missing")
	}
	if math.IsNaN(i.Price) || math.IsInf(i.Price, 0) || i.Price < 0 {
		return NewValidationError("price", "price must be a finite non-negative number")
	}
	if i.Quantity < 1 {
		return NewValidationError("quantity", "quantity must be at least 1")
	}
	return nil
}

// Cart is the canonical local cart. Item order is insertion order and
// is significant (the line-update endpoint addresses lines by
// position). Total is maintained by the store after every mutation.
type Cart struct {
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}

// Empty returns a cart with no items and a zero total, with Items
// non-nil so it serializes as an empty array.
func Empty() Cart {
	return Cart{Items: []CartItem{}}
}

// CalculateTotal returns the sum of price times quantity over all
// lines. Pure function of the items; never mutates.
func (c Cart) CalculateTotal() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// ItemCount returns the sum of quantities across all lines.
func (c Cart) ItemCount() int {
	var n int
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// FindLine returns the index of the line matching item per the
// identity rule, or -1.
func (c Cart) FindLine(item CartItem) int {
	for idx, existing := range c.Items {
		if existing.Matches(item) {
			return idx
		}
	}
	return -1
}

// IsCartRoute reports whether path targets the storefront cart view
// (as opposed to the cart API endpoints, which keep their suffixes).
func IsCartRoute(path string) bool {
	if strings.HasSuffix(path, "/cart.js") || strings.HasSuffix(path, "/cart.json") {
		return false
	}
	if strings.Contains(path, "/cart/add.js") || strings.Contains(path, "/cart/change.js") {
		return false
	}
	return path == "/cart" || path == "/cart/" || strings.HasSuffix(path, "/cart")
}

// IsCheckoutRoute reports whether path targets the real checkout,
// which must never be reached under static hosting.
func IsCheckoutRoute(path string) bool {
	return path == "/checkout" || path == "/checkout/" || strings.HasSuffix(path, "/checkout")
}
