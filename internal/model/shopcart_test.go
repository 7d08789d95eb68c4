package model

import "testing"

func TestBuildCartResponse(t *testing.T) {
	cart := Cart{
		Items: []CartItem{
			{ID: "10", VariantID: "100", Title: "Camiseta", Price: 123.45, Quantity: 1, URL: "./products/camiseta/index.html"},
			{ID: "20", VariantID: "200", Title: "Zapatilla", Price: 10, Quantity: 3},
		},
		Total: 153.45,
	}

	resp := BuildCartResponse(cart, CartView{Currency: "ARS"})

	if resp.Token == "" {
		t.Error("token should not be empty")
	}
	if resp.ItemCount != 4 {
		t.Errorf("ItemCount = %d, want 4", resp.ItemCount)
	}
	if resp.TotalPrice != 15345 {
		t.Errorf("TotalPrice = %d, want 15345", resp.TotalPrice)
	}
	if resp.Currency != "ARS" {
		t.Errorf("Currency = %q, want ARS", resp.Currency)
	}

	first := resp.Items[0]
	if first.Price != 12345 {
		t.Errorf("Price = %d, want 12345", first.Price)
	}
	if first.Key != "key-1" {
		t.Errorf("Key = %q, want key-1", first.Key)
	}
	if first.VariantID != "100" {
		t.Errorf("VariantID = %q, want 100", first.VariantID)
	}
	if first.VariantTitle != "Default Title" {
		t.Errorf("VariantTitle = %q, want Default Title", first.VariantTitle)
	}

	second := resp.Items[1]
	if second.Key != "key-2" {
		t.Errorf("Key = %q, want key-2", second.Key)
	}
	if second.FinalLinePrice != 3000 {
		t.Errorf("FinalLinePrice = %d, want 3000", second.FinalLinePrice)
	}
}

func TestBuildCartResponseEmptyCart(t *testing.T) {
	resp := BuildCartResponse(Empty(), CartView{Currency: "ARS"})

	if resp.Items == nil {
		t.Error("Items should be non-nil for JSON serialization")
	}
	if len(resp.Items) != 0 || resp.ItemCount != 0 || resp.TotalPrice != 0 {
		t.Errorf("empty cart response not empty: %+v", resp)
	}
}

func TestItemURLFromCartPage(t *testing.T) {
	tests := []struct {
		name string
		item CartItem
		want string
	}{
		{
			name: "page-relative link gains a level",
			item: CartItem{URL: "./products/camiseta/index.html"},
			want: "../products/camiseta/index.html",
		},
		{
			name: "already parent-relative unchanged",
			item: CartItem{URL: "../products/camiseta/index.html"},
			want: "../products/camiseta/index.html",
		},
		{
			name: "absolute unchanged",
			item: CartItem{URL: "/products/camiseta"},
			want: "/products/camiseta",
		},
		{
			name: "missing url rebuilt from handle",
			item: CartItem{Handle: "camiseta", URL: "products/camiseta"},
			want: "../products/camiseta/index.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.item.Quantity = 1
			resp := BuildCartResponse(Cart{Items: []CartItem{tt.item}}, CartView{FromCartPage: true})
			if got := resp.Items[0].URL; got != tt.want {
				t.Errorf("URL = %q, want %q", got, tt.want)
			}
		})
	}
}
