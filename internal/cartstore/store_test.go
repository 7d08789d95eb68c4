package cartstore

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/afero"

	"github.com/mygitvirtual012322/carrefourloja/internal/model"
)

func newTestStore() *Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(afero.NewMemMapFs(), "carts", logger)
}

func TestAddItemMergesMatchingLine(t *testing.T) {
	s := newTestStore()
	item := model.CartItem{ID: "1", VariantID: "100", Title: "Camiseta", Price: 50}

	if _, err := s.AddItem("tok", item); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := s.AddItem("tok", item)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("lines = %d, want 1", len(cart.Items))
	}
	if cart.Items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", cart.Items[0].Quantity)
	}
	if cart.Total != 100 {
		t.Errorf("total = %v, want 100", cart.Total)
	}
}

func TestAddItemAppendsNewLine(t *testing.T) {
	s := newTestStore()

	if _, err := s.AddItem("tok", model.CartItem{ID: "1", VariantID: "100", Price: 50}); err != nil {
		t.Fatalf("add: %v", err)
	}
	cart, err := s.AddItem("tok", model.CartItem{ID: "2", VariantID: "200", Price: 30})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if len(cart.Items) != 2 {
		t.Fatalf("lines = %d, want 2", len(cart.Items))
	}
	if cart.Total != 80 {
		t.Errorf("total = %v, want 80", cart.Total)
	}
}

func TestAddItemRejectsUnidentifiedProduct(t *testing.T) {
	s := newTestStore()

	_, err := s.AddItem("tok", model.CartItem{Title: "mystery", Price: 10})
	if err == nil {
		t.Fatal("expected validation error for item without identifiers")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	s := newTestStore()

	want, err := s.AddItem("tok", model.CartItem{ID: "1", Title: "Camiseta", Price: 99.90})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got := s.Load("tok")
	if len(got.Items) != 1 || got.Items[0].Title != "Camiseta" {
		t.Errorf("loaded cart = %+v, want %+v", got, want)
	}
	if got.Total != want.Total {
		t.Errorf("total = %v, want %v", got.Total, want.Total)
	}
}

func TestLoadCorruptRecordStartsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(fs, "carts", logger)

	if err := afero.WriteFile(fs, "carts/tok.json", []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	cart := s.Load("tok")
	if len(cart.Items) != 0 || cart.Total != 0 {
		t.Errorf("corrupt record should load as empty, got %+v", cart)
	}
	if cart.Items == nil {
		t.Error("Items should be non-nil")
	}
}

func TestUpdateLine(t *testing.T) {
	s := newTestStore()
	if _, err := s.AddItem("tok", model.CartItem{ID: "1", Price: 10}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddItem("tok", model.CartItem{ID: "2", Price: 20}); err != nil {
		t.Fatal(err)
	}

	cart, err := s.UpdateLine("tok", 2, 5)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cart.Items[1].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", cart.Items[1].Quantity)
	}
	if cart.Total != 110 {
		t.Errorf("total = %v, want 110", cart.Total)
	}
}

func TestUpdateLineZeroRemoves(t *testing.T) {
	s := newTestStore()
	if _, err := s.AddItem("tok", model.CartItem{ID: "1", Price: 10}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddItem("tok", model.CartItem{ID: "2", Price: 20}); err != nil {
		t.Fatal(err)
	}

	cart, err := s.UpdateLine("tok", 1, 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("lines = %d, want 1", len(cart.Items))
	}
	if cart.Items[0].ID != "2" {
		t.Errorf("remaining line = %q, want 2", cart.Items[0].ID)
	}
}

func TestUpdateLineOutOfRange(t *testing.T) {
	s := newTestStore()
	if _, err := s.AddItem("tok", model.CartItem{ID: "1", Price: 10}); err != nil {
		t.Fatal(err)
	}

	_, err := s.UpdateLine("tok", 5, 1)
	if err == nil {
		t.Fatal("expected out-of-range error")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 400 {
		t.Errorf("want 400 validation error, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	s := newTestStore()
	if _, err := s.AddItem("tok", model.CartItem{ID: "1", VariantID: "100", Price: 10}); err != nil {
		t.Fatal(err)
	}

	cart, err := s.RemoveItem("tok", "100")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("lines = %d, want 0", len(cart.Items))
	}
}

func TestClear(t *testing.T) {
	s := newTestStore()
	if _, err := s.AddItem("tok", model.CartItem{ID: "1", Price: 10}); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear("tok"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cart := s.Load("tok"); len(cart.Items) != 0 {
		t.Errorf("cart not empty after clear: %+v", cart)
	}

	// Clearing an absent record is not an error.
	if err := s.Clear("missing"); err != nil {
		t.Errorf("clear of missing record: %v", err)
	}
}

func TestTokensIsolateCarts(t *testing.T) {
	s := newTestStore()
	if _, err := s.AddItem("a", model.CartItem{ID: "1", Price: 10}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddItem("b", model.CartItem{ID: "2", Price: 20}); err != nil {
		t.Fatal(err)
	}

	if cart := s.Load("a"); len(cart.Items) != 1 || cart.Items[0].ID != "1" {
		t.Errorf("cart a = %+v", cart)
	}
	if cart := s.Load("b"); len(cart.Items) != 1 || cart.Items[0].ID != "2" {
		t.Errorf("cart b = %+v", cart)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"abc-123", "abc-123"},
		{"../../etc/passwd", "etcpasswd"},
		{"", "default"},
		{"..//..", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := sanitizeToken(tt.token); got != tt.want {
				t.Errorf("sanitizeToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}
