// Package emulator answers the storefront cart API with synthetic
// responses built from the local cart store, so the cloned pages'
// rendering code keeps working against a backend that no longer
// exists. It operates as a pass-through filter: only the fixed set of
// cart endpoints is intercepted, everything else flows to the next
// handler untouched.
package emulator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mygitvirtual012322/carrefourloja/internal/cartstore"
	"github.com/mygitvirtual012322/carrefourloja/internal/extract"
	"github.com/mygitvirtual012322/carrefourloja/internal/guard"
	"github.com/mygitvirtual012322/carrefourloja/internal/model"
	"github.com/mygitvirtual012322/carrefourloja/internal/staticsite"
)

// TokenCookie names the cookie carrying the browser's cart token.
const TokenCookie = "cart_token"

// MaxRequestBodySize limits JSON request bodies to 1MB.
const MaxRequestBodySize = 1 << 20

// Emulator intercepts the storefront cart endpoints.
type Emulator struct {
	store     *cartstore.Store
	extractor *extract.Extractor
	pages     *staticsite.Handler
	bridge    http.Handler
	currency  string
	logger    *slog.Logger
}

// New creates an Emulator. pages provides the served HTML for product
// extraction when an add-to-cart call carries no structured data;
// bridge receives intercepted checkout calls.
func New(store *cartstore.Store, extractor *extract.Extractor, pages *staticsite.Handler, bridge http.Handler, currency string, logger *slog.Logger) *Emulator {
	return &Emulator{
		store:     store,
		extractor: extractor,
		pages:     pages,
		bridge:    bridge,
		currency:  currency,
		logger:    logger,
	}
}

// Wrap returns a handler that emulates the cart endpoints and forwards
// everything else to next.
func (e *Emulator) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		switch {
		case strings.Contains(p, "/cart/add.js"):
			e.handleAdd(w, r)
		case strings.Contains(p, "/cart/change.js"):
			e.handleChange(w, r)
		case strings.HasSuffix(p, "/cart.js"), strings.HasSuffix(p, "/cart.json"):
			e.handleRead(w, r)
		case model.IsCheckoutRoute(p):
			// Never forwarded; the bridge takes over.
			e.bridge.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// addRequest is the accepted body of the add-to-cart endpoint. The
// theme's own scripts send only the variant id; the injected bootstrap
// sends the full product it scraped from its page.
type addRequest struct {
	ID        json.Number `json:"id"`
	Quantity  int         `json:"quantity"`
	ProductID string      `json:"product_id"`
	Title     string      `json:"title"`
	Price     float64     `json:"price"`
	Image     string      `json:"image"`
	Handle    string      `json:"handle"`
	URL       string      `json:"url"`
}

// handleAdd emulates the add-to-cart endpoint. Product data comes from
// the request body when supplied, otherwise from the page the request
// was issued on. The cart is persisted before the response carries the
// redirect target, so the cart view never renders stale state.
func (e *Emulator) handleAdd(w http.ResponseWriter, r *http.Request) {
	token := e.cartToken(w, r)

	req, err := decodeAddRequest(r)
	if err != nil {
		e.writeError(w, err)
		return
	}

	item := model.CartItem{
		ID:        req.ProductID,
		VariantID: req.ID.String(),
		Title:     req.Title,
		Price:     req.Price,
		Image:     req.Image,
		Handle:    req.Handle,
		URL:       req.URL,
	}
	if item.VariantID == "0" {
		item.VariantID = ""
	}

	// Incomplete body: fill the gaps from the referring page.
	if item.Title == "" || item.Price == 0 {
		item = e.fillFromPage(item, refererPath(r))
	}
	if item.ID == "" {
		item.ID = item.VariantID
	}

	cart, err := e.store.AddItem(token, item)
	if err != nil {
		e.writeError(w, err)
		return
	}

	cartPath := guard.CartPath(refererPath(r))
	e.logger.Info("item added",
		slog.String("token", token),
		slog.String("variant", item.Key()),
		slog.Int("lines", len(cart.Items)),
	)

	if wantsHTML(r) {
		http.Redirect(w, r, cartPath, http.StatusFound)
		return
	}
	e.writeJSON(w, http.StatusOK, map[string]any{
		"product":   item,
		"cart_path": cartPath,
	})
}

// handleRead emulates the cart-query endpoints. The cart is re-read
// from persistence on every call; another tab or form may have written
// since this tab last looked.
func (e *Emulator) handleRead(w http.ResponseWriter, r *http.Request) {
	token := e.cartToken(w, r)
	cart := e.store.Load(token)

	resp := model.BuildCartResponse(cart, model.CartView{
		Currency:     e.currency,
		FromCartPage: strings.Contains(refererPath(r), "/cart"),
	})
	e.writeJSON(w, http.StatusOK, resp)
}

// changeRequest is the body of the cart-line-update endpoint. Line is
// the 1-based position of the line in the cart.
type changeRequest struct {
	Line     int `json:"line"`
	Quantity int `json:"quantity"`
}

// handleChange emulates the cart-line-update endpoint and responds
// with the same synthetic shape as a cart read.
func (e *Emulator) handleChange(w http.ResponseWriter, r *http.Request) {
	token := e.cartToken(w, r)

	var req changeRequest
	if err := decodeJSON(r, &req); err != nil {
		e.writeError(w, err)
		return
	}

	cart, err := e.store.UpdateLine(token, req.Line, req.Quantity)
	if err != nil {
		// An out-of-range line leaves the cart untouched; the page
		// still gets the current state back.
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
			e.writeError(w, err)
			return
		}
		e.logger.Warn("line update ignored", slog.String("error", err.Error()))
	}

	resp := model.BuildCartResponse(cart, model.CartView{
		Currency:     e.currency,
		FromCartPage: strings.Contains(refererPath(r), "/cart"),
	})
	e.writeJSON(w, http.StatusOK, resp)
}

// fillFromPage resolves the referring page through the static site and
// extracts product data from it, keeping any fields the request body
// already supplied.
func (e *Emulator) fillFromPage(item model.CartItem, pagePath string) model.CartItem {
	f, _, err := e.pages.Open(pagePath)
	if err != nil {
		e.logger.Warn("referring page not found", slog.String("path", pagePath))
		return item
	}
	defer f.Close()

	extracted, err := e.extractor.FromPage(f, pagePath)
	if err != nil {
		e.logger.Warn("product extraction failed",
			slog.String("path", pagePath),
			slog.String("error", err.Error()),
		)
		return item
	}

	if item.VariantID == "" {
		item.VariantID = extracted.VariantID
	}
	if item.ID == "" {
		item.ID = extracted.ID
	}
	if item.Title == "" {
		item.Title = extracted.Title
	}
	if item.Price == 0 {
		item.Price = extracted.Price
	}
	if item.Image == "" {
		item.Image = extracted.Image
	}
	if item.Handle == "" {
		item.Handle = extracted.Handle
	}
	if item.URL == "" {
		item.URL = extracted.URL
	}
	return item
}

// cartToken returns the browser's cart token, minting one (and setting
// the cookie) when absent.
func (e *Emulator) cartToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	token := cartstore.NewToken()
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// decodeAddRequest accepts either a JSON body or a classic form post.
func decodeAddRequest(r *http.Request) (addRequest, error) {
	var req addRequest
	ct := r.Header.Get("Content-Type")
	if strings.Contains(ct, "application/x-www-form-urlencoded") || strings.Contains(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return req, model.NewValidationError("body", "invalid form data")
		}
		req.ID = json.Number(r.PostFormValue("id"))
		return req, nil
	}
	if r.Body == nil || r.ContentLength == 0 {
		return req, nil
	}
	if err := decodeJSON(r, &req); err != nil {
		return req, err
	}
	return req, nil
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

func (e *Emulator) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		e.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from
// APIError when present in the chain.
func (e *Emulator) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(err)
		e.logger.Error("internal error", slog.String("error", err.Error()))
	}
	e.writeJSON(w, apiErr.StatusCode, map[string]any{
		"error": map[string]string{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

// refererPath extracts the path of the page that issued the request.
func refererPath(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return r.URL.Path
	}
	u, err := url.Parse(ref)
	if err != nil {
		return r.URL.Path
	}
	return u.Path
}

// wantsHTML reports whether the caller is a classic form navigation
// rather than the page's fetch-based scripts.
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
