package cart

import (
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Line is a cart line as rendered by every cart surface.
type Line struct {
	Item
	// Eligible reports membership in the verdict's eligible ids.
	Eligible bool
	// DisplayUnitPrice is the unit price after this line's share of the discount.
	DisplayUnitPrice decimal.Decimal
	// Discount is the line's share of the discount, over the whole quantity.
	Discount decimal.Decimal
}

// PriceLines computes display prices for items under verdict v, which may be nil.
//
// Percentage coupons reduce each eligible unit price by the coupon value.
// Fixed coupons spread the verdict's discount amount over eligible lines in
// proportion to their share of the eligible subtotal. Ineligible and
// unavailable lines show their full price. Amounts are rounded to two places
// and never negative.
func PriceLines(items []Item, v *model.Verdict) []Line {
	lines := make([]Line, len(items))
	eligible := eligibleSet(v)

	eligibleSubtotal := decimal.Zero
	for i, it := range items {
		lines[i] = Line{Item: it, DisplayUnitPrice: it.UnitPrice, Discount: decimal.Zero}
		if it.Unavailable || it.Quantity < 1 {
			continue
		}
		if eligible[normalizeID(it.ID)] || (it.InternalID != "" && eligible[normalizeID(it.InternalID)]) {
			lines[i].Eligible = true
			eligibleSubtotal = eligibleSubtotal.Add(it.LineTotal())
		}
	}
	if v == nil {
		return lines
	}

	for i := range lines {
		ln := &lines[i]
		if !ln.Eligible {
			continue
		}
		qty := decimal.NewFromInt(int64(ln.Quantity))

		var unit decimal.Decimal
		switch v.Type {
		case model.DiscountPercentage:
			unit = ln.UnitPrice.Mul(decimal.NewFromInt(1).Sub(v.Value.Div(hundred)))
		case model.DiscountFixed:
			if !eligibleSubtotal.IsPositive() {
				continue
			}
			share := ln.LineTotal().Div(eligibleSubtotal)
			unit = ln.UnitPrice.Sub(v.DiscountAmount.Mul(share).Div(qty))
		default:
			continue
		}

		if unit.IsNegative() {
			unit = decimal.Zero
		}
		ln.DisplayUnitPrice = unit.Round(2)
		ln.Discount = ln.UnitPrice.Sub(unit).Mul(qty).Round(2)
	}
	return lines
}

func eligibleSet(v *model.Verdict) map[string]bool {
	if v == nil {
		return nil
	}
	set := make(map[string]bool, len(v.EligibleItemIDs))
	for _, id := range v.EligibleItemIDs {
		set[normalizeID(id)] = true
	}
	return set
}
