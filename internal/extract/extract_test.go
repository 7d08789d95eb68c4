package extract

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestExtractor() *Extractor {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const productPage = `<!doctype html>
<html>
<head>
<meta property="og:price:amount" content="24373.00">
<meta property="og:image" content="https://cdn.example.com/camiseta.jpg">
</head>
<body>
<h1>Camiseta Azul</h1>
<script>
var meta = {"product": {"id": 8123456789, "vendor": "Loja"}};
</script>
<form action="/cart/add">
<input type="hidden" name="id" value="42546120294589">
</form>
<input type="hidden" id="crStickyVariantId" value="42546120294589">
</body>
</html>`

func TestFromPageFullData(t *testing.T) {
	e := newTestExtractor()

	item, err := e.FromPage(strings.NewReader(productPage), "/products/camiseta-azul/index.html")
	if err != nil {
		t.Fatalf("FromPage: %v", err)
	}

	if item.Title != "Camiseta Azul" {
		t.Errorf("Title = %q", item.Title)
	}
	if item.Price != 24373.00 {
		t.Errorf("Price = %v, want 24373", item.Price)
	}
	if item.Image != "https://cdn.example.com/camiseta.jpg" {
		t.Errorf("Image = %q", item.Image)
	}
	if item.VariantID != "42546120294589" {
		t.Errorf("VariantID = %q", item.VariantID)
	}
	if item.ID != "8123456789" {
		t.Errorf("ID = %q, want product id from inline script", item.ID)
	}
	if item.Handle != "camiseta-azul" {
		t.Errorf("Handle = %q", item.Handle)
	}
}

func TestPriceFallsBackToStickyBar(t *testing.T) {
	e := newTestExtractor()
	page := `<html><body><h1>P</h1><span id="crStickyPrice">$ 1.234,56</span></body></html>`

	item, err := e.FromPage(strings.NewReader(page), "/products/p/index.html")
	if err != nil {
		t.Fatal(err)
	}
	if item.Price != 1234.56 {
		t.Errorf("Price = %v, want 1234.56", item.Price)
	}
}

func TestPriceFallsBackToGenericClass(t *testing.T) {
	e := newTestExtractor()
	page := `<html><body><h1>P</h1><div class="product-price">$ 450,00</div></body></html>`

	item, err := e.FromPage(strings.NewReader(page), "/products/p/index.html")
	if err != nil {
		t.Fatal(err)
	}
	if item.Price != 450.00 {
		t.Errorf("Price = %v, want 450", item.Price)
	}
}

func TestImageSelectorChain(t *testing.T) {
	e := newTestExtractor()
	page := `<html><body>
<div class="product-gallery"><img data-src="/lazy.jpg"></div>
</body></html>`

	item, err := e.FromPage(strings.NewReader(page), "/products/p/index.html")
	if err != nil {
		t.Fatal(err)
	}
	if item.Image != "/lazy.jpg" {
		t.Errorf("Image = %q, want /lazy.jpg", item.Image)
	}
}

func TestProductIDFallsBackToStickyAttr(t *testing.T) {
	e := newTestExtractor()
	page := `<html><body>
<sticky-add-to-cart data-product-id="777"></sticky-add-to-cart>
<input name="id" value="100">
</body></html>`

	item, err := e.FromPage(strings.NewReader(page), "/products/p/index.html")
	if err != nil {
		t.Fatal(err)
	}
	if item.ID != "777" {
		t.Errorf("ID = %q, want 777", item.ID)
	}
	if item.VariantID != "100" {
		t.Errorf("VariantID = %q, want 100", item.VariantID)
	}
}

func TestProductIDFallsBackToVariant(t *testing.T) {
	e := newTestExtractor()
	page := `<html><body><input name="id" value="100"></body></html>`

	item, err := e.FromPage(strings.NewReader(page), "/products/p/index.html")
	if err != nil {
		t.Fatal(err)
	}
	if item.ID != "100" {
		t.Errorf("ID = %q, want variant fallback 100", item.ID)
	}
}

func TestMissingFieldsDegradeToZero(t *testing.T) {
	e := newTestExtractor()
	page := `<html><body><h1>Bare</h1></body></html>`

	item, err := e.FromPage(strings.NewReader(page), "/pages/about/index.html")
	if err != nil {
		t.Fatal(err)
	}
	if item.Price != 0 || item.Image != "" || item.Handle != "" {
		t.Errorf("expected zero-value fields, got %+v", item)
	}
}
