package staticsite

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
)

func newTestHandler(t *testing.T, files map[string]string) *Handler {
	t.Helper()
	fs := afero.NewMemMapFs()
	for p, content := range files {
		if err := afero.WriteFile(fs, p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return New(fs, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolve(t *testing.T) {
	h := newTestHandler(t, map[string]string{
		"index.html":                     "home",
		"cart/index.html":                "cart",
		"products/camiseta/index.html":   "product",
		"assets/app.js":                  "js",
		"collections/ofertas/index.html": "collection",
	})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"root", "/", "/index.html"},
		{"directory route", "/cart", "/cart/index.html"},
		{"trailing slash", "/cart/", "/cart/index.html"},
		{"nested route", "/products/camiseta", "/products/camiseta/index.html"},
		{"file with extension", "/assets/app.js", "/assets/app.js"},
		{"query string ignored", "/cart?from=nav", "/cart/index.html"},
		{"missing child falls to parent", "/products/camiseta/reviews", "/products/camiseta/index.html"},
		{"unknown route falls to root", "/no/such/page", "/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestServeHTTPSetsContentType(t *testing.T) {
	h := newTestHandler(t, map[string]string{
		"index.html":    "<html>home</html>",
		"assets/app.js": "console.log(1)",
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if rec.Body.String() != "<html>home</html>" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestServeHTTPMissingSite(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
