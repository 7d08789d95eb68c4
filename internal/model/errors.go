package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrCartEmpty          = errors.New("cart empty")
	ErrUpstreamError      = errors.New("upstream error")
	ErrIntegrationDown    = errors.New("checkout integration inactive")
	ErrInsecureCheckout   = errors.New("checkout URL not secure")
	ErrPersistenceCorrupt = errors.New("persisted cart unreadable")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewEmptyCartError creates a 422 error for checkout attempts on an
// empty cart. Blocks the bridge before any network call is made.
func NewEmptyCartError() *APIError {
	return &APIError{
		Code:       "CART_EMPTY",
		Message:    "the cart has no items",
		StatusCode: 422,
		Err:        ErrCartEmpty,
	}
}

// NewZeroPriceError creates a 422 error for a line whose computed
// minor-unit price is not positive. A zero-value checkout is never
// sent to the provider.
func NewZeroPriceError(title string) *APIError {
	return &APIError{
		Code:       "ZERO_PRICE",
		Message:    fmt.Sprintf("item %q has no configured price; add it to the cart again", title),
		StatusCode: 422,
		Err:        ErrInvalidRequest,
	}
}

// NewUpstreamError creates a 502 error for checkout-provider failures.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// NewInsecureCheckoutError creates a 502 error for a provider checkout
// URL that is not https. The browser is never redirected to it.
func NewInsecureCheckoutError(url string) *APIError {
	return &APIError{
		Code:       "INSECURE_CHECKOUT",
		Message:    "checkout provider returned an unusable checkout URL",
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %q", ErrInsecureCheckout, url),
	}
}

// NewIntegrationInactiveError creates a 502 error for a provider
// response without an active integration or usable checkout URL.
func NewIntegrationInactiveError(reason string) *APIError {
	return &APIError{
		Code:       "INTEGRATION_INACTIVE",
		Message:    reason,
		StatusCode: 502,
		Err:        ErrIntegrationDown,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}
