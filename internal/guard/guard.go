// Package guard keeps the cloned pages away from routes that no longer
// exist under static hosting. The pages' own markup and scripts still
// assume a live backend: cart icons link to the real cart, checkout
// forms post to the real checkout. The guard rewrites every served HTML
// document idempotently and backstops the rewrite with route-level
// redirects, so the gateway stays the single interception point.
package guard

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mygitvirtual012322/carrefourloja/internal/model"
)

// Guard rewrites navigation surfaces in served HTML and redirects
// guarded routes.
type Guard struct {
	shopDomain string
	bridge     http.Handler
	logger     *slog.Logger
}

// New creates a Guard. bridge receives every request for a checkout
// route; shopDomain identifies absolute backend URLs to localize.
func New(shopDomain string, bridge http.Handler, logger *slog.Logger) *Guard {
	return &Guard{shopDomain: shopDomain, bridge: bridge, logger: logger}
}

// CartPath returns the relative path from the page at pagePath to the
// local cart view. Product, collection and content pages sit two
// levels below the site root in the mirrored layout.
func CartPath(pagePath string) string {
	switch {
	case strings.Contains(pagePath, "/products/"),
		strings.Contains(pagePath, "/collections/"),
		strings.Contains(pagePath, "/pages/"):
		return "../../cart/index.html"
	case strings.Contains(pagePath, "/cart"):
		return "./index.html"
	default:
		return "./cart/index.html"
	}
}

// HomePath returns the relative path from the page at pagePath to the
// site root index.
func HomePath(pagePath string) string {
	switch {
	case strings.Contains(pagePath, "/products/"),
		strings.Contains(pagePath, "/collections/"),
		strings.Contains(pagePath, "/pages/"):
		return "../../index.html"
	case strings.Contains(pagePath, "/cart"):
		return "../index.html"
	default:
		return "./index.html"
	}
}

// Wrap installs the route guard and the HTML rewriter around next.
func (g *Guard) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Checkout routes are never forwarded anywhere: the bridge
		// takes over, whatever the method.
		if model.IsCheckoutRoute(r.URL.Path) {
			g.bridge.ServeHTTP(w, r)
			return
		}

		// Bare cart routes land on the local cart view. Replace-style:
		// a redirect, not a rewrite, so the address bar matches the
		// clone's layout and back navigation cannot loop.
		if model.IsCartRoute(r.URL.Path) && r.URL.Path != "/cart/" {
			http.Redirect(w, r, "/cart/", http.StatusFound)
			return
		}

		rec := &htmlRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if !rec.buffering {
			return
		}
		g.flushRewritten(w, r, rec)
	})
}

// flushRewritten rewrites the buffered HTML document and writes it out.
// When the document cannot be parsed the original bytes pass through
// unchanged; the route guard above remains the safety net for any
// navigation the rewrite would have caught.
func (g *Guard) flushRewritten(w http.ResponseWriter, r *http.Request, rec *htmlRecorder) {
	rewritten, err := g.RewriteHTML(rec.buf.Bytes(), r.URL.Path)
	if err != nil {
		g.logger.Warn("html rewrite failed, serving original",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		rewritten = rec.buf.Bytes()
	}
	w.Header().Del("Content-Length")
	w.WriteHeader(rec.status)
	if _, err := w.Write(rewritten); err != nil {
		g.logger.Error("writing rewritten page", slog.String("error", err.Error()))
	}
}

// RewriteHTML applies every navigation rewrite to one document. The
// transformation is idempotent: running it again over its own output
// changes nothing.
func (g *Guard) RewriteHTML(page []byte, pagePath string) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	cartPath := CartPath(pagePath)

	// Cart icon links point at the local cart view.
	doc.Find("a.cfar-ico--cart, .cfar-ico--cart a").Each(func(_ int, s *goquery.Selection) {
		s.SetAttr("href", cartPath)
	})

	// The logo returns to the local site root.
	doc.Find("a.cfar-logo, .cfar-logo a").Each(func(_ int, s *goquery.Selection) {
		s.SetAttr("href", HomePath(pagePath))
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		switch {
		case g.isBackendURL(href):
			s.SetAttr("href", g.localizeURL(href, pagePath))
		case strings.Contains(href, "/checkout"):
			s.SetAttr("href", "/checkout")
		case model.IsCartRoute(href):
			s.SetAttr("href", cartPath)
		}
	})

	// Forms that would reach the cart or checkout backend submit to
	// the guarded local routes instead; a checkout-named submit control
	// marks a checkout form even when the action says otherwise.
	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		action, _ := s.Attr("action")
		isCheckout := strings.Contains(action, "checkout") ||
			s.Find(`button[name="checkout"], input[name="checkout"]`).Length() > 0
		switch {
		case isCheckout:
			s.SetAttr("action", "/checkout")
			s.SetAttr("method", "post")
		case strings.Contains(action, "/cart/add"):
			s.SetAttr("action", "/cart/add.js")
		case strings.Contains(action, "cart"):
			s.SetAttr("action", "/cart/")
		}
	})

	html, err := doc.Html()
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

// isBackendURL reports whether href is an absolute URL into the real
// storefront backend.
func (g *Guard) isBackendURL(href string) bool {
	if g.shopDomain == "" {
		return false
	}
	return strings.HasPrefix(href, "https://"+g.shopDomain) ||
		strings.HasPrefix(href, "http://"+g.shopDomain) ||
		strings.HasPrefix(href, "//"+g.shopDomain)
}

// localizeURL strips the backend origin, keeping the path local.
func (g *Guard) localizeURL(href, pagePath string) string {
	for _, prefix := range []string{"https://", "http://", "//"} {
		href = strings.TrimPrefix(href, prefix)
	}
	href = strings.TrimPrefix(href, g.shopDomain)
	if href == "" || href == "/" {
		return HomePath(pagePath)
	}
	if model.IsCartRoute(href) {
		return CartPath(pagePath)
	}
	return href
}

// htmlRecorder buffers HTML responses for rewriting and passes
// everything else through untouched.
type htmlRecorder struct {
	http.ResponseWriter
	buf       bytes.Buffer
	status    int
	buffering bool
	decided   bool
}

func (r *htmlRecorder) WriteHeader(status int) {
	if r.decided {
		return
	}
	r.decided = true
	r.status = status
	ct := r.Header().Get("Content-Type")
	r.buffering = strings.Contains(ct, "text/html") && status == http.StatusOK
	if !r.buffering {
		r.ResponseWriter.WriteHeader(status)
	}
}

func (r *htmlRecorder) Write(b []byte) (int, error) {
	if !r.decided {
		r.WriteHeader(http.StatusOK)
	}
	if r.buffering {
		return r.buf.Write(b)
	}
	return r.ResponseWriter.Write(b)
}
