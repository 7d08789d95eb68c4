// Package agent exposes the gateway's cart operations as MCP tools, so
// shopping agents can drive the same cart a browser session would.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mygitvirtual012322/carrefourloja/internal/bridge"
	"github.com/mygitvirtual012322/carrefourloja/internal/cartstore"
	"github.com/mygitvirtual012322/carrefourloja/internal/extract"
	"github.com/mygitvirtual012322/carrefourloja/internal/model"
	"github.com/mygitvirtual012322/carrefourloja/internal/staticsite"
)

// Agent serves cart tools over MCP.
type Agent struct {
	store      *cartstore.Store
	extractor  *extract.Extractor
	pages      *staticsite.Handler
	client     *bridge.Client
	shop       string
	internal   string
	currency   string
	productMap map[string]string
	logger     *slog.Logger
}

// New creates an Agent over the same store and bridge client the HTTP
// gateway uses. productMap maps product handles to provider product
// IDs and may be nil.
func New(store *cartstore.Store, extractor *extract.Extractor, pages *staticsite.Handler, client *bridge.Client, shop, internalDomain, currency string, productMap map[string]string, logger *slog.Logger) *Agent {
	return &Agent{
		store:      store,
		extractor:  extractor,
		pages:      pages,
		client:     client,
		shop:       shop,
		internal:   internalDomain,
		currency:   currency,
		productMap: productMap,
		logger:     logger,
	}
}

// === Tool Input Types ===

// ViewCartInput identifies the cart to read.
type ViewCartInput struct {
	CartToken string `json:"cart_token,omitempty" jsonschema:"cart token, a new cart is used when omitted"`
}

// AddToCartInput adds one product line by its handle.
type AddToCartInput struct {
	CartToken string `json:"cart_token,omitempty" jsonschema:"cart token, a new cart is minted when omitted"`
	Handle    string `json:"handle" jsonschema:"product handle,required"`
	Quantity  int    `json:"quantity,omitempty" jsonschema:"quantity, defaults to 1"`
}

// UpdateLineInput changes one cart line's quantity.
type UpdateLineInput struct {
	CartToken string `json:"cart_token" jsonschema:"cart token,required"`
	Line      int    `json:"line" jsonschema:"1-based line number,required"`
	Quantity  int    `json:"quantity" jsonschema:"new quantity, zero removes the line,required"`
}

// CreateCheckoutInput submits the cart to the checkout provider.
type CreateCheckoutInput struct {
	CartToken string `json:"cart_token" jsonschema:"cart token,required"`
}

// CartOutput is the tool result for cart-returning tools.
type CartOutput struct {
	CartToken string             `json:"cart_token"`
	Cart      model.CartResponse `json:"cart"`
}

// CheckoutOutput carries the provider's hosted checkout URL.
type CheckoutOutput struct {
	CheckoutURL string `json:"checkout_url"`
}

// NewServer creates an MCP server with the cart tools registered.
func (a *Agent) NewServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "lojagate",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront cart operations. Add products by handle, " +
				"inspect the cart, then create a checkout to get a payment URL.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "view_cart",
		Description: "Get the current cart contents and totals.",
	}, a.viewCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product to the cart by its handle. Product data is read from the mirrored product page.",
	}, a.addToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_line",
		Description: "Change the quantity of a cart line; quantity zero removes it.",
	}, a.updateLine)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_checkout",
		Description: "Submit the cart to the checkout provider and return the hosted checkout URL.",
	}, a.createCheckout)

	return server
}

// NewHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (a *Agent) NewHandler() http.Handler {
	server := a.NewServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (a *Agent) viewCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ViewCartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	token := a.token(input.CartToken)
	cart := a.store.Load(token)
	return nil, a.output(token, cart), nil
}

func (a *Agent) addToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	if input.Handle == "" {
		return nil, nil, fmt.Errorf("handle is required")
	}
	token := a.token(input.CartToken)

	item, err := a.productByHandle(input.Handle)
	if err != nil {
		return nil, nil, a.toolError(err)
	}

	qty := input.Quantity
	if qty < 1 {
		qty = 1
	}
	var cart model.Cart
	for i := 0; i < qty; i++ {
		cart, err = a.store.AddItem(token, item)
		if err != nil {
			return nil, nil, a.toolError(err)
		}
	}
	return nil, a.output(token, cart), nil
}

func (a *Agent) updateLine(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateLineInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	if input.CartToken == "" {
		return nil, nil, fmt.Errorf("cart_token is required")
	}
	cart, err := a.store.UpdateLine(input.CartToken, input.Line, input.Quantity)
	if err != nil {
		return nil, nil, a.toolError(err)
	}
	return nil, a.output(input.CartToken, cart), nil
}

func (a *Agent) createCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CreateCheckoutInput,
) (*mcp.CallToolResult, *CheckoutOutput, error) {
	if input.CartToken == "" {
		return nil, nil, fmt.Errorf("cart_token is required")
	}
	cart := a.store.Load(input.CartToken)

	checkoutReq, err := bridge.BuildRequest(cart, a.shop, a.internal, a.currency, a.productMap)
	if err != nil {
		return nil, nil, a.toolError(err)
	}
	checkoutURL, err := a.client.CreateCheckout(ctx, checkoutReq)
	if err != nil {
		return nil, nil, a.toolError(err)
	}
	return nil, &CheckoutOutput{CheckoutURL: checkoutURL}, nil
}

// productByHandle reads the mirrored product page and extracts the
// product from it.
func (a *Agent) productByHandle(handle string) (model.CartItem, error) {
	pagePath := "/products/" + handle + "/"
	f, _, err := a.pages.Open(pagePath)
	if err != nil {
		return model.CartItem{}, model.NewNotFoundError("product " + handle)
	}
	defer f.Close()

	item, err := a.extractor.FromPage(f, pagePath)
	if err != nil {
		return model.CartItem{}, err
	}
	if item.Handle == "" {
		item.Handle = handle
	}
	return item, nil
}

func (a *Agent) token(token string) string {
	if token != "" {
		return token
	}
	return cartstore.NewToken()
}

func (a *Agent) output(token string, cart model.Cart) *CartOutput {
	return &CartOutput{
		CartToken: token,
		Cart: model.BuildCartResponse(cart, model.CartView{
			Currency: a.currency,
		}),
	}
}

// toolError converts gateway errors to MCP-friendly errors.
func (a *Agent) toolError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	a.logger.Error("mcp internal error", slog.String("error", err.Error()))
	return fmt.Errorf("internal error")
}
