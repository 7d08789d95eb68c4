// Package mirror crawls the live storefront and writes a static clone
// of it. Every crawled route is saved as {route}/index.html so the
// clone serves under the same URL space the theme's markup expects.
package mirror

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/afero"
)

// Seed routes crawled even when nothing links to them; the catch-all
// collection enumerates every published product.
var seedRoutes = []string{"/", "/collections/all", "/cart"}

// Crawlable route prefixes. Everything else found in links is left to
// the page's own assets.
var routePrefixes = []string{"/products/", "/collections/", "/pages/", "/policies/"}

// Mirror crawls one storefront into a filesystem.
type Mirror struct {
	base     *url.URL
	client   *http.Client
	fs       afero.Fs
	password string
	maxPages int
	delay    time.Duration
	logger   *slog.Logger
}

// New creates a Mirror writing into fs. transport should present a
// browser-grade TLS fingerprint; storefront CDNs turn away obvious
// bots. password unlocks a storefront behind the coming-soon gate and
// may be empty. The cookie jar carries the gate's session cookie
// across the crawl.
func New(shopDomain, password string, transport http.RoundTripper, fs afero.Fs, logger *slog.Logger) *Mirror {
	jar, _ := cookiejar.New(nil)
	return &Mirror{
		base:     &url.URL{Scheme: "https", Host: shopDomain},
		client:   &http.Client{Transport: transport, Jar: jar, Timeout: 30 * time.Second},
		fs:       fs,
		password: password,
		maxPages: 500,
		delay:    300 * time.Millisecond,
		logger:   logger,
	}
}

// Run crawls the storefront breadth-first from the seed routes and
// returns the number of pages written.
func (m *Mirror) Run(ctx context.Context) (int, error) {
	visited := make(map[string]bool)
	queue := append([]string(nil), seedRoutes...)
	saved := 0

	for len(queue) > 0 && saved < m.maxPages {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		route := queue[0]
		queue = queue[1:]
		if visited[route] {
			continue
		}
		visited[route] = true

		page, err := m.fetch(ctx, route)
		if err != nil {
			m.logger.Warn("fetch failed", slog.String("route", route), slog.String("error", err.Error()))
			continue
		}

		if isPasswordPage(page) {
			if err := m.unlock(ctx); err != nil {
				return saved, fmt.Errorf("storefront is password protected: %w", err)
			}
			page, err = m.fetch(ctx, route)
			if err != nil {
				return saved, fmt.Errorf("refetching %s after unlock: %w", route, err)
			}
			if isPasswordPage(page) {
				return saved, fmt.Errorf("storefront rejected the configured password")
			}
		}

		if err := m.save(route, page); err != nil {
			return saved, fmt.Errorf("saving %s: %w", route, err)
		}
		saved++
		m.logger.Info("page mirrored", slog.String("route", route))

		for _, link := range m.links(page) {
			if !visited[link] {
				queue = append(queue, link)
			}
		}

		time.Sleep(m.delay)
	}
	return saved, nil
}

// fetch downloads one route with browser-shaped request headers.
func (m *Mirror) fetch(ctx context.Context, route string) (*goquery.Document, error) {
	u := *m.base
	u.Path = route

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 10<<20))
}

// links extracts the crawlable same-site routes from a page.
func (m *Mirror) links(doc *goquery.Document) []string {
	var out []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		route := m.normalize(href)
		if route == "" || seen[route] {
			return
		}
		seen[route] = true
		out = append(out, route)
	})
	return out
}

// normalize reduces a link to a crawlable local route, or "".
func (m *Mirror) normalize(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.Host != "" && u.Host != m.base.Host {
		return ""
	}
	route := path.Clean("/" + u.Path)
	for _, prefix := range routePrefixes {
		if strings.HasPrefix(route, prefix) {
			return route
		}
	}
	return ""
}

// save writes a page under its route's index.html.
func (m *Mirror) save(route string, doc *goquery.Document) error {
	html, err := doc.Html()
	if err != nil {
		return err
	}

	target := "index.html"
	if route != "/" {
		target = path.Join(strings.TrimPrefix(route, "/"), "index.html")
	}
	if err := m.fs.MkdirAll(path.Dir(target), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(m.fs, target, []byte(html), 0o644)
}

// isPasswordPage detects the platform's coming-soon gate.
func isPasswordPage(doc *goquery.Document) bool {
	return doc.Find(`form[action*="/password"]`).Length() > 0
}

// unlock submits the coming-soon gate's password form. The gate
// answers with a session cookie the jar then presents on every
// subsequent fetch.
func (m *Mirror) unlock(ctx context.Context) error {
	if m.password == "" {
		return fmt.Errorf("no storefront password configured")
	}

	form := url.Values{
		"form_type": {"storefront_password"},
		"utf8":      {"✓"},
		"password":  {m.password},
	}
	u := *m.base
	u.Path = "/password"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("password form answered %d", resp.StatusCode)
	}
	m.logger.Info("storefront gate unlocked")
	return nil
}
