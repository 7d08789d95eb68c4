package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// === Storefront Cart Protocol ===
//
// CartResponse is the on-the-wire shape the real backend returns from
// its cart-query endpoints. The emulator recomputes it from the local
// Cart on every request; it is derived, ephemeral, and never persisted.

// CartResponse mirrors the storefront cart-query schema.
// All prices are integers in minor units.
type CartResponse struct {
	Token      string             `json:"token"`
	Items      []CartResponseItem `json:"items"`
	ItemCount  int                `json:"item_count"`
	TotalPrice int64              `json:"total_price"`
	Currency   string             `json:"currency"`
	Attributes map[string]string  `json:"attributes"`
}

// CartResponseItem is one line of the cart-query response.
type CartResponseItem struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	VariantID      string `json:"variant_id"`
	Title          string `json:"title"`
	ProductTitle   string `json:"product_title"`
	VariantTitle   string `json:"variant_title"`
	Quantity       int    `json:"quantity"`
	Price          int64  `json:"price"`
	FinalPrice     int64  `json:"final_price"`
	OriginalPrice  int64  `json:"original_price"`
	FinalLinePrice int64  `json:"final_line_price"`
	Image          string `json:"image"`
	URL            string `json:"url"`
	Key            string `json:"key"`
}

// CartView controls how a CartResponse is rendered for the requesting
// page. FromCartPage adjusts item URLs to be relative to the cart view
// instead of the page the item was added from.
type CartView struct {
	Currency     string
	FromCartPage bool
}

// BuildCartResponse maps the local cart to the storefront wire shape.
// Line keys are positional and stable for the lifetime of the response;
// the token is ephemeral and only needs to be non-empty for the page's
// rendering code.
func BuildCartResponse(cart Cart, view CartView) CartResponse {
	resp := CartResponse{
		Token:      strconv.FormatInt(time.Now().UnixMilli(), 10),
		Items:      make([]CartResponseItem, 0, len(cart.Items)),
		ItemCount:  cart.ItemCount(),
		TotalPrice: MinorUnits(cart.Total),
		Currency:   view.Currency,
		Attributes: map[string]string{},
	}

	for idx, it := range cart.Items {
		unit := MinorUnits(it.Price)
		variantTitle := it.VariantTitle
		if variantTitle == "" {
			variantTitle = "Default Title"
		}
		resp.Items = append(resp.Items, CartResponseItem{
			ID:             it.Key(),
			ProductID:      it.ID,
			VariantID:      it.Key(),
			Title:          it.Title,
			ProductTitle:   it.Title,
			VariantTitle:   variantTitle,
			Quantity:       it.Quantity,
			Price:          unit,
			FinalPrice:     unit,
			OriginalPrice:  unit,
			FinalLinePrice: unit * int64(it.Quantity),
			Image:          it.Image,
			URL:            itemURL(it, view),
			Key:            fmt.Sprintf("key-%d", idx+1),
		})
	}
	return resp
}

// itemURL rebuilds the product link for the requesting page's depth.
// The cart view lives one directory below the site root, so relative
// product links gain one level of ".." there.
func itemURL(it CartItem, view CartView) string {
	u := it.URL
	if u == "" {
		handle := it.Handle
		if handle == "" {
			handle = "product"
		}
		u = fmt.Sprintf("./products/%s/index.html", handle)
	}
	if !view.FromCartPage {
		return u
	}
	switch {
	case strings.HasPrefix(u, "./"):
		return "../" + u[2:]
	case strings.HasPrefix(u, "../"), strings.HasPrefix(u, "http"), strings.HasPrefix(u, "/"):
		return u
	default:
		handle := it.Handle
		if handle == "" {
			handle = "product"
		}
		return fmt.Sprintf("../products/%s/index.html", handle)
	}
}
