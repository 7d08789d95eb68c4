package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mygitvirtual012322/carrefourloja/internal/model"
)

// Client talks to the external checkout provider.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a provider client. A nil transport uses the
// default one.
func NewClient(endpoint string, transport http.RoundTripper, logger *slog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		logger: logger,
	}
}

// CreateCheckout submits the cart to the provider and returns the
// checkout URL. The URL is only returned when the provider reports the
// store integration active and the URL is https; anything else is an
// upstream failure, never a redirect target.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", model.NewInternalError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", model.NewInternalError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", model.NewUpstreamError("checkout provider", err)
	}
	defer resp.Body.Close()

	c.logger.Info("checkout provider responded",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", model.NewUpstreamError("checkout provider", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", model.NewUpstreamError("checkout provider", fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed CheckoutResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", model.NewUpstreamError("checkout provider", fmt.Errorf("decoding response: %w", err))
	}

	if !parsed.Data.Integration.Active {
		return "", model.NewIntegrationInactiveError("store integration is not active")
	}
	checkoutURL := parsed.Data.CheckoutURL
	if !strings.HasPrefix(checkoutURL, "https://") {
		return "", model.NewInsecureCheckoutError(checkoutURL)
	}
	return checkoutURL, nil
}
