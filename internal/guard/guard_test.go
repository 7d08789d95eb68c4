package guard

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestGuard() *Guard {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bridge := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	return New("store.example.com", bridge, logger)
}

func TestCartPath(t *testing.T) {
	tests := []struct {
		pagePath string
		want     string
	}{
		{"/products/camiseta/index.html", "../../cart/index.html"},
		{"/collections/ofertas/", "../../cart/index.html"},
		{"/pages/contacto/", "../../cart/index.html"},
		{"/cart/", "./index.html"},
		{"/", "./cart/index.html"},
		{"/index.html", "./cart/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.pagePath, func(t *testing.T) {
			if got := CartPath(tt.pagePath); got != tt.want {
				t.Errorf("CartPath(%q) = %q, want %q", tt.pagePath, got, tt.want)
			}
		})
	}
}

func TestWrapRoutesCheckoutToBridge(t *testing.T) {
	g := newTestGuard()
	h := g.Wrap(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/checkout", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want bridge sentinel 418", rec.Code)
	}
}

func TestWrapRedirectsBareCartRoute(t *testing.T) {
	g := newTestGuard()
	h := g.Wrap(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/cart/" {
		t.Errorf("Location = %q, want /cart/", loc)
	}
}

func TestWrapRewritesServedHTML(t *testing.T) {
	g := newTestGuard()
	page := `<html><body><a class="cfar-ico--cart" href="https://store.example.com/cart">Cart</a></body></html>`
	h := g.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, page)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/camiseta/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `href="../../cart/index.html"`) {
		t.Errorf("cart icon not rewritten: %s", rec.Body.String())
	}
}

func TestWrapLeavesNonHTMLUntouched(t *testing.T) {
	g := newTestGuard()
	h := g.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"a":"<b>"}`)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart.js", nil))
	if rec.Body.String() != `{"a":"<b>"}` {
		t.Errorf("JSON body modified: %q", rec.Body.String())
	}
}

func TestRewriteHTMLCheckoutForm(t *testing.T) {
	g := newTestGuard()
	page := `<html><body>
<form action="https://store.example.com/cart" method="get">
<button name="checkout">Finalizar compra</button>
</form>
</body></html>`

	out, err := g.RewriteHTML([]byte(page), "/cart/")
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)
	if !strings.Contains(html, `action="/checkout"`) {
		t.Errorf("checkout form action not rewritten: %s", html)
	}
	if !strings.Contains(html, `method="post"`) {
		t.Errorf("checkout form method not forced to post: %s", html)
	}
}

func TestRewriteHTMLAddToCartForm(t *testing.T) {
	g := newTestGuard()
	page := `<html><body><form action="/cart/add" method="post"><input name="id" value="1"></form></body></html>`

	out, err := g.RewriteHTML([]byte(page), "/products/p/")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `action="/cart/add.js"`) {
		t.Errorf("add form not rewritten: %s", out)
	}
}

func TestRewriteHTMLLocalizesBackendLinks(t *testing.T) {
	g := newTestGuard()
	page := `<html><body>
<a href="https://store.example.com/collections/ofertas">Ofertas</a>
<a href="https://otherdomain.example/page">External</a>
</body></html>`

	out, err := g.RewriteHTML([]byte(page), "/")
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)
	if !strings.Contains(html, `href="/collections/ofertas"`) {
		t.Errorf("backend link not localized: %s", html)
	}
	if !strings.Contains(html, `href="https://otherdomain.example/page"`) {
		t.Errorf("external link should stay untouched: %s", html)
	}
}

func TestRewriteHTMLIdempotent(t *testing.T) {
	g := newTestGuard()
	page := `<html><body>
<a class="cfar-ico--cart" href="/cart">Cart</a>
<form action="/cart/add"><input name="id"></form>
<form action="/checkout"><button name="checkout">Pagar</button></form>
</body></html>`

	once, err := g.RewriteHTML([]byte(page), "/products/p/")
	if err != nil {
		t.Fatal(err)
	}
	twice, err := g.RewriteHTML(once, "/products/p/")
	if err != nil {
		t.Fatal(err)
	}
	if string(once) != string(twice) {
		t.Errorf("rewrite not idempotent:\nfirst:  %s\nsecond: %s", once, twice)
	}
}
