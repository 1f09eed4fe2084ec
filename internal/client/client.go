// Package client calls the pricing service over HTTP. A *Client serves as
// both the verifier and the catalog of a cart session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
	"github.com/fairyhunter13/storefront-pricing/internal/pricing"
	"github.com/fairyhunter13/storefront-pricing/internal/service"
)

const maxResponseBytes = 1 << 20

// RejectedError is a verification the service answered with success=false.
// Its message is the user-facing text sent by the service.
type RejectedError struct {
	Status    int
	Reason    string
	Message   string
	Shortfall decimal.Decimal
}

func (e *RejectedError) Error() string {
	return e.Message
}

// Unwrap maps the wire reason back to the service's sentinel errors so callers
// can use errors.Is the same way against a local or a remote verifier.
func (e *RejectedError) Unwrap() error {
	switch e.Reason {
	case model.ReasonMalformedRequest:
		return service.ErrInvalidRequest
	case model.ReasonNotFound:
		return service.ErrCouponNotFound
	case model.ReasonExpired:
		return service.ErrCouponExpired
	case model.ReasonUsageExhausted:
		return service.ErrUsageExhausted
	case model.ReasonNoEligibleItems:
		return service.ErrNoEligibleItems
	case model.ReasonBelowMinimum:
		return pricing.ErrBelowMinimum
	default:
		return service.ErrVerificationUnavailable
	}
}

// Client is an HTTP client for the pricing service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for the service at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify calls POST /api/coupons/verify.
// A response with success=false is returned as *RejectedError.
func (c *Client) Verify(ctx context.Context, req *model.VerifyCouponRequest) (*model.Verdict, error) {
	var resp model.VerifyCouponResponse
	status, err := c.post(ctx, "/api/coupons/verify", req, &resp)
	if err != nil {
		return nil, err
	}

	if verdict, ok := resp.Verdict(); ok {
		return verdict, nil
	}
	if resp.Reason == "" && resp.Message == "" {
		return nil, fmt.Errorf("verify coupon: unexpected response status %d", status)
	}
	return nil, &RejectedError{
		Status:    status,
		Reason:    resp.Reason,
		Message:   resp.Message,
		Shortfall: decimal.NewFromFloat(resp.Shortfall),
	}
}

// Lookup calls POST /api/products/lookup. Unknown ids are absent from the result.
func (c *Client) Lookup(ctx context.Context, ids []string) ([]model.ProductSnapshot, error) {
	var resp model.LookupProductsResponse
	status, err := c.post(ctx, "/api/products/lookup", model.LookupProductsRequest{IDs: ids}, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("lookup products: unexpected response status %d", status)
	}
	return resp.Products, nil
}

// post sends body as JSON and decodes the response into out whatever the status.
func (c *Client) post(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, fmt.Errorf("POST %s: status %d: decode response: %w", path, resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
