package model

import "github.com/shopspring/decimal"

// CartItem is one cart line as sent by a client. Category, Brand and Price are
// advisory display values; the server resolves authoritative ones from the catalog.
type CartItem struct {
	ID       string   `json:"id" validate:"required,notblank"`
	Quantity int      `json:"quantity" validate:"gte=1"`
	Category string   `json:"category,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

// VerifyCouponRequest is the DTO for POST /api/coupons/verify.
type VerifyCouponRequest struct {
	Code      string     `json:"code" validate:"required,notblank,max=64"`
	CartTotal float64    `json:"cartTotal"`
	CartItems []CartItem `json:"cartItems" validate:"required,min=1,max=200,dive"`
}

// Verdict is a successful verification result.
type Verdict struct {
	Code            string
	Type            DiscountType
	Value           decimal.Decimal
	DiscountAmount  decimal.Decimal
	Subtotal        decimal.Decimal
	EligibleItemIDs []string
	Message         string
}

// Failure reasons reported by the verification endpoint.
const (
	ReasonMalformedRequest = "malformed_request"
	ReasonNotFound         = "not_found"
	ReasonExpired          = "expired"
	ReasonUsageExhausted   = "usage_exhausted"
	ReasonNoEligibleItems  = "no_eligible_items"
	ReasonBelowMinimum     = "below_minimum"
	ReasonUnavailable      = "unavailable"
)

// VerifyCouponResponse is the single result shape of the verification endpoint,
// discriminated by Success.
type VerifyCouponResponse struct {
	Success         bool     `json:"success"`
	Reason          string   `json:"reason,omitempty"`
	Message         string   `json:"message"`
	Code            string   `json:"code,omitempty"`
	Type            string   `json:"type,omitempty"`
	Value           float64  `json:"value,omitempty"`
	DiscountAmount  float64  `json:"discountAmount"`
	Subtotal        float64  `json:"subtotal,omitempty"`
	EligibleItemIDs []string `json:"eligibleItemIds,omitempty"`
	Shortfall       float64  `json:"shortfall,omitempty"`
}

// NewVerifyCouponResponse converts a verdict to its wire form.
func NewVerifyCouponResponse(v *Verdict) *VerifyCouponResponse {
	return &VerifyCouponResponse{
		Success:         true,
		Message:         v.Message,
		Code:            v.Code,
		Type:            string(v.Type),
		Value:           v.Value.InexactFloat64(),
		DiscountAmount:  v.DiscountAmount.InexactFloat64(),
		Subtotal:        v.Subtotal.InexactFloat64(),
		EligibleItemIDs: v.EligibleItemIDs,
	}
}

// Verdict converts a successful response back to a verdict. It returns false
// when the response does not report success.
func (r *VerifyCouponResponse) Verdict() (*Verdict, bool) {
	if r == nil || !r.Success {
		return nil, false
	}
	ids := r.EligibleItemIDs
	if ids == nil {
		ids = []string{}
	}
	return &Verdict{
		Code:            r.Code,
		Type:            DiscountType(r.Type),
		Value:           decimal.NewFromFloat(r.Value),
		DiscountAmount:  decimal.NewFromFloat(r.DiscountAmount),
		Subtotal:        decimal.NewFromFloat(r.Subtotal),
		EligibleItemIDs: ids,
		Message:         r.Message,
	}, true
}
