package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType is the kind of discount a coupon grants.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// Coupon is a persisted coupon definition from the registry.
type Coupon struct {
	ID                   uuid.UUID           `json:"id"`
	Code                 string              `json:"code"`
	Type                 DiscountType        `json:"type"`
	Value                decimal.Decimal     `json:"value"`
	MinOrderAmount       decimal.Decimal     `json:"min_order_amount"`
	MaxDiscountAmount    decimal.NullDecimal `json:"max_discount_amount"`
	ExpirationDate       *time.Time          `json:"expiration_date,omitempty"`
	IsActive             bool                `json:"is_active"`
	UsageLimit           *int                `json:"usage_limit,omitempty"`
	UsedCount            int                 `json:"used_count"`
	ApplicableProducts   []string            `json:"applicable_products"`
	ApplicableCategories []string            `json:"applicable_categories"`
	ApplicableBrands     []string            `json:"applicable_brands"`
	CreatedAt            time.Time           `json:"created_at"`
}

// IsSpecific reports whether the coupon is constrained to products, categories or brands.
// A coupon with no constraints is storewide.
func (c *Coupon) IsSpecific() bool {
	return len(c.ApplicableProducts) > 0 || len(c.ApplicableCategories) > 0 || len(c.ApplicableBrands) > 0
}

// IsExpired reports whether now is strictly after the expiration date.
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ExpirationDate != nil && now.After(*c.ExpirationDate)
}

// IsExhausted reports whether the global redemption cap has been reached.
// Verification only reads the counter; it never reserves a redemption.
func (c *Coupon) IsExhausted() bool {
	return c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit
}

// NormalizeCode canonicalizes a coupon code: trimmed and upper-cased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateCouponRequest is the DTO for creating a coupon from the back office.
type CreateCouponRequest struct {
	Code                 string     `json:"code" validate:"required,notblank,max=64"`
	Type                 string     `json:"type" validate:"required,coupontype"`
	Value                *float64   `json:"value" validate:"required,gt=0"`
	MinOrderAmount       float64    `json:"minOrderAmount" validate:"gte=0"`
	MaxDiscountAmount    *float64   `json:"maxDiscountAmount" validate:"omitempty,gt=0"`
	ExpirationDate       *time.Time `json:"expirationDate"`
	IsActive             *bool      `json:"isActive"`
	UsageLimit           *int       `json:"usageLimit" validate:"omitempty,gte=1"`
	ApplicableProducts   []string   `json:"applicableProducts" validate:"dive,notblank"`
	ApplicableCategories []string   `json:"applicableCategories" validate:"dive,notblank"`
	ApplicableBrands     []string   `json:"applicableBrands" validate:"dive,notblank"`
}

// CouponResponse is the API response DTO for GET /api/coupons/:code.
type CouponResponse struct {
	Code                 string     `json:"code"`
	Type                 string     `json:"type"`
	Value                float64    `json:"value"`
	MinOrderAmount       float64    `json:"minOrderAmount"`
	MaxDiscountAmount    *float64   `json:"maxDiscountAmount,omitempty"`
	ExpirationDate       *time.Time `json:"expirationDate,omitempty"`
	IsActive             bool       `json:"isActive"`
	UsageLimit           *int       `json:"usageLimit,omitempty"`
	UsedCount            int        `json:"usedCount"`
	ApplicableProducts   []string   `json:"applicableProducts"`
	ApplicableCategories []string   `json:"applicableCategories"`
	ApplicableBrands     []string   `json:"applicableBrands"`
}

// NewCouponResponse converts a registry coupon to its API representation.
func NewCouponResponse(c *Coupon) *CouponResponse {
	resp := &CouponResponse{
		Code:                 c.Code,
		Type:                 string(c.Type),
		Value:                c.Value.InexactFloat64(),
		MinOrderAmount:       c.MinOrderAmount.InexactFloat64(),
		ExpirationDate:       c.ExpirationDate,
		IsActive:             c.IsActive,
		UsageLimit:           c.UsageLimit,
		UsedCount:            c.UsedCount,
		ApplicableProducts:   nonNil(c.ApplicableProducts),
		ApplicableCategories: nonNil(c.ApplicableCategories),
		ApplicableBrands:     nonNil(c.ApplicableBrands),
	}
	if c.MaxDiscountAmount.Valid {
		limit := c.MaxDiscountAmount.Decimal.InexactFloat64()
		resp.MaxDiscountAmount = &limit
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
