package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
)

var (
	// ErrBelowMinimum matches any *BelowMinimumError.
	ErrBelowMinimum = errors.New("order amount below coupon minimum")

	// ErrUnknownDiscountType is returned for a coupon type other than percentage or fixed.
	ErrUnknownDiscountType = errors.New("unknown discount type")
)

var hundred = decimal.NewFromInt(100)

// BelowMinimumError reports how far the checked amount is from the coupon minimum.
type BelowMinimumError struct {
	Required  decimal.Decimal
	Current   decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("order amount %s below minimum %s (short by %s)",
		e.Current.String(), e.Required.String(), e.Shortfall.String())
}

// Is makes errors.Is(err, ErrBelowMinimum) hold.
func (e *BelowMinimumError) Is(target error) bool {
	return target == ErrBelowMinimum
}

// Rule is the discount-relevant part of a coupon.
type Rule struct {
	Type              model.DiscountType
	Value             decimal.Decimal
	MinOrderAmount    decimal.Decimal
	MaxDiscountAmount decimal.NullDecimal
}

// RuleFor extracts the discount rule of a coupon.
func RuleFor(c *model.Coupon) Rule {
	return Rule{
		Type:              c.Type,
		Value:             c.Value,
		MinOrderAmount:    c.MinOrderAmount,
		MaxDiscountAmount: c.MaxDiscountAmount,
	}
}

// Calculate computes the discount for an eligibility result.
//
// The minimum order is checked against the eligible amount for specific
// coupons and against the subtotal for storewide ones. The result is rounded
// to whole currency units and always satisfies 0 <= discount <= subtotal;
// fixed discounts additionally never exceed the coupon value or the eligible
// amount, and percentage discounts never exceed a positive cap.
func Calculate(rule Rule, e Eligibility) (decimal.Decimal, error) {
	checked := e.Subtotal
	if e.Specific {
		checked = e.Amount
	}
	if checked.LessThan(rule.MinOrderAmount) {
		return decimal.Zero, &BelowMinimumError{
			Required:  rule.MinOrderAmount,
			Current:   checked,
			Shortfall: rule.MinOrderAmount.Sub(checked),
		}
	}

	limit := e.Subtotal
	var raw decimal.Decimal
	switch rule.Type {
	case model.DiscountPercentage:
		raw = e.Amount.Mul(rule.Value).Div(hundred)
		if rule.MaxDiscountAmount.Valid && rule.MaxDiscountAmount.Decimal.IsPositive() {
			limit = decimal.Min(limit, rule.MaxDiscountAmount.Decimal)
		}
	case model.DiscountFixed:
		raw = rule.Value
		limit = decimal.Min(limit, e.Amount, rule.Value)
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownDiscountType, rule.Type)
	}

	if !limit.IsPositive() || !raw.IsPositive() {
		return decimal.Zero, nil
	}

	discount := decimal.Min(raw, limit).Round(0)
	if discount.GreaterThan(limit) {
		// rounding up past a fractional cap
		discount = limit.Floor()
	}
	return discount, nil
}
