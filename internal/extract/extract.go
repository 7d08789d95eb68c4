// Package extract pulls product data out of a rendered storefront
// page. Used when an add-to-cart call arrives without structured data:
// every field resolves through an ordered fallback chain and degrades
// to empty/zero when no step yields a value.
package extract

import (
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mygitvirtual012322/carrefourloja/internal/model"
)

var (
	handlePattern    = regexp.MustCompile(`/products/([^/?#]+)`)
	productIDPattern = regexp.MustCompile(`"product":\s*\{[^}]*"id":\s*(\d+)`)
)

// Image selector chain, most specific first. Mirrors the markup of the
// cloned theme; the trailing entries are generic safety nets.
var imageSelectors = []string{
	".product-image img",
	".main-image img",
	"[data-product-image] img",
	".product__media img",
	".product-media img",
	"img[data-product-image]",
	".product__media-wrapper img",
	"picture img",
	".product-gallery img",
	`img[alt*="product"]`,
}

// Extractor reads product data from page HTML.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// FromPage parses the page at pagePath and assembles a best-effort
// product. Missing fields stay empty/zero; the caller decides whether
// that is a data-quality failure.
func (e *Extractor) FromPage(r io.Reader, pagePath string) (model.CartItem, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return model.CartItem{}, model.NewValidationError("page", "unparseable HTML")
	}

	item := model.CartItem{
		Handle:    handleFromPath(pagePath),
		Title:     strings.TrimSpace(doc.Find("h1").First().Text()),
		VariantID: variantID(doc),
		Price:     e.price(doc),
		Image:     e.image(doc),
		URL:       strings.SplitN(pagePath, "?", 2)[0],
	}
	item.ID = e.productID(doc, item.VariantID)

	if item.Price == 0 {
		e.logger.Warn("price not found on page", slog.String("path", pagePath))
	}
	if item.Image == "" {
		e.logger.Warn("image not found on page", slog.String("path", pagePath))
	}
	return item, nil
}

// price resolves through: og:price:amount meta → the sticky-bar price
// element → any generic price-class element.
func (e *Extractor) price(doc *goquery.Document) float64 {
	if content, ok := doc.Find(`meta[property="og:price:amount"]`).First().Attr("content"); ok {
		if p := model.ParsePriceText(content); p > 0 {
			return p
		}
	}
	if p := model.ParsePriceText(doc.Find("#crStickyPrice").First().Text()); p > 0 {
		return p
	}
	return model.ParsePriceText(doc.Find(`.price, [class*="price"]`).First().Text())
}

// image resolves through: og:image meta → the ranked selector chain →
// the first content image on the page.
func (e *Extractor) image(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && content != "" {
		return content
	}
	for _, sel := range imageSelectors {
		if src := imageSource(doc.Find(sel).First()); src != "" {
			return src
		}
	}
	return imageSource(doc.Find(`main img, .product img, [class*="product"] img`).First())
}

// productID resolves through: the inline analytics meta script → the
// sticky add-to-cart element → the variant ID as last resort.
func (e *Extractor) productID(doc *goquery.Document, variantID string) string {
	var id string
	doc.Find("script:not([src])").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := productIDPattern.FindStringSubmatch(s.Text()); m != nil {
			id = m[1]
			return false
		}
		return true
	})
	if id != "" {
		return id
	}
	if v, ok := doc.Find("sticky-add-to-cart").First().Attr("data-product-id"); ok && v != "" {
		return v
	}
	return variantID
}

func variantID(doc *goquery.Document) string {
	if v, ok := doc.Find("#crStickyVariantId").First().Attr("value"); ok && v != "" {
		return v
	}
	if v, ok := doc.Find(`input[name="id"]`).First().Attr("value"); ok {
		return v
	}
	return ""
}

func imageSource(sel *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-original"} {
		if v, ok := sel.Attr(attr); ok && v != "" {
			return v
		}
	}
	return ""
}

func handleFromPath(pagePath string) string {
	if m := handlePattern.FindStringSubmatch(pagePath); m != nil {
		return m[1]
	}
	return ""
}
