package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mygitvirtual012322/carrefourloja/internal/cartstore"
	"github.com/mygitvirtual012322/carrefourloja/internal/model"
)

// Handler serves the local checkout route. Every intercepted checkout
// navigation lands here; on success the browser is redirected to the
// provider's hosted checkout, on failure the shopper sees an error
// page that keeps them on the store.
type Handler struct {
	store          *cartstore.Store
	client         *Client
	shop           string
	internalDomain string
	currency       string
	cookieName     string
	productMap     map[string]string
	logger         *slog.Logger
}

// NewHandler creates the checkout handler. cookieName is the cart
// token cookie the emulator maintains; productMap maps product handles
// to provider product IDs and may be nil.
func NewHandler(store *cartstore.Store, client *Client, shop, internalDomain, currency, cookieName string, productMap map[string]string, logger *slog.Logger) *Handler {
	return &Handler{
		store:          store,
		client:         client,
		shop:           shop,
		internalDomain: internalDomain,
		currency:       currency,
		cookieName:     cookieName,
		productMap:     productMap,
		logger:         logger,
	}
}

// ServeHTTP implements http.Handler. The cart is re-read from
// persistence first; the page the shopper clicked from may be stale.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := h.token(r)
	cart := h.store.Load(token)

	req, err := BuildRequest(cart, h.shop, h.internalDomain, h.currency, h.productMap)
	if err != nil {
		h.logger.Warn("checkout blocked before submission",
			slog.String("token", token),
			slog.String("error", err.Error()),
		)
		h.writeError(w, r, err)
		return
	}

	checkoutURL, err := h.client.CreateCheckout(r.Context(), req)
	if err != nil {
		h.logger.Error("checkout creation failed",
			slog.String("token", token),
			slog.String("error", err.Error()),
		)
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("redirecting to checkout",
		slog.String("token", token),
		slog.Int("lines", len(cart.Items)),
		slog.Int64("total", req.CartPayload.TotalPrice),
	)
	http.Redirect(w, r, checkoutURL, http.StatusSeeOther)
}

func (h *Handler) token(r *http.Request) string {
	if c, err := r.Cookie(h.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return "default"
}

// writeError answers a failed checkout. Form navigations get an HTML
// page with a way back to the cart; script callers get the structured
// error body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(err)
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(apiErr.StatusCode)
		if encErr := json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": apiErr.Code, "message": apiErr.Message},
		}); encErr != nil {
			h.logger.Error("failed to encode response", slog.String("error", encErr.Error()))
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(apiErr.StatusCode)
	fmt.Fprintf(w, errorPage, html.EscapeString(apiErr.Message))
}

const errorPage = `<!doctype html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>Checkout indisponível</title></head>
<body style="font-family:sans-serif;max-width:32rem;margin:4rem auto;text-align:center">
<h1>Não foi possível iniciar o checkout</h1>
<p>%s</p>
<p><a href="/cart/">Voltar ao carrinho</a></p>
</body>
</html>
`
