package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPriceLines_NoCoupon(t *testing.T) {
	lines := PriceLines([]Item{serum(2), shampoo(1)}, nil)

	require.Len(t, lines, 2)
	for _, ln := range lines {
		assert.False(t, ln.Eligible)
		assert.True(t, ln.UnitPrice.Equal(ln.DisplayUnitPrice))
		assert.True(t, ln.Discount.IsZero())
	}
}

func TestPriceLines_Percentage(t *testing.T) {
	v := &model.Verdict{
		Type:            model.DiscountPercentage,
		Value:           d(20),
		DiscountAmount:  d(40),
		EligibleItemIDs: []string{"serum-01"},
	}

	lines := PriceLines([]Item{serum(2), shampoo(1)}, v)

	assert.True(t, lines[0].Eligible)
	assert.True(t, d(80).Equal(lines[0].DisplayUnitPrice))
	assert.True(t, d(40).Equal(lines[0].Discount))

	assert.False(t, lines[1].Eligible, "ineligible lines keep their full price")
	assert.True(t, d(50).Equal(lines[1].DisplayUnitPrice))
}

func TestPriceLines_FixedIsProportional(t *testing.T) {
	// Eligible subtotal 300: serum 200 takes 2/3 of 60, cleanser 100 takes 1/3.
	cleanser := Item{ID: "cleanser-01", UnitPrice: d(50), Quantity: 2}
	v := &model.Verdict{
		Type:            model.DiscountFixed,
		Value:           d(60),
		DiscountAmount:  d(60),
		EligibleItemIDs: []string{"serum-01", "cleanser-01"},
	}

	lines := PriceLines([]Item{serum(2), cleanser, shampoo(1)}, v)

	assert.True(t, d(40).Equal(lines[0].Discount))
	assert.True(t, d(80).Equal(lines[0].DisplayUnitPrice))
	assert.True(t, d(20).Equal(lines[1].Discount))
	assert.True(t, d(40).Equal(lines[1].DisplayUnitPrice))
	assert.True(t, lines[2].Discount.IsZero())

	total := decimal.Zero
	for _, ln := range lines {
		total = total.Add(ln.Discount)
	}
	assert.True(t, v.DiscountAmount.Equal(total), "line discounts add up to the verdict")
}

func TestPriceLines_FixedUsesVerdictAmount(t *testing.T) {
	// The verdict amount is authoritative even when it differs from the
	// coupon value, e.g. after the server clamped it.
	v := &model.Verdict{
		Type:            model.DiscountFixed,
		Value:           d(500),
		DiscountAmount:  d(200),
		EligibleItemIDs: []string{"serum-01"},
	}

	lines := PriceLines([]Item{serum(2)}, v)

	assert.True(t, lines[0].DisplayUnitPrice.IsZero())
	assert.True(t, d(200).Equal(lines[0].Discount))
}

func TestPriceLines_FlooredAtZero(t *testing.T) {
	v := &model.Verdict{
		Type:            model.DiscountPercentage,
		Value:           d(150),
		EligibleItemIDs: []string{"serum-01"},
	}

	lines := PriceLines([]Item{serum(1)}, v)

	assert.True(t, lines[0].DisplayUnitPrice.IsZero())
	assert.True(t, d(100).Equal(lines[0].Discount))
}

func TestPriceLines_RoundsToCents(t *testing.T) {
	v := &model.Verdict{
		Type:            model.DiscountFixed,
		DiscountAmount:  d(10),
		EligibleItemIDs: []string{"a", "b", "c"},
	}
	items := []Item{
		{ID: "a", UnitPrice: d(10), Quantity: 1},
		{ID: "b", UnitPrice: d(10), Quantity: 1},
		{ID: "c", UnitPrice: d(10), Quantity: 1},
	}

	lines := PriceLines(items, v)

	for _, ln := range lines {
		assert.True(t, dec("6.67").Equal(ln.DisplayUnitPrice), ln.DisplayUnitPrice.String())
		assert.True(t, dec("3.33").Equal(ln.Discount), ln.Discount.String())
	}
}

func TestPriceLines_MatchesInternalID(t *testing.T) {
	it := serum(1)
	it.InternalID = "65f0c0ffee0000000000abcd"
	v := &model.Verdict{
		Type:            model.DiscountPercentage,
		Value:           d(10),
		EligibleItemIDs: []string{"65f0c0ffee0000000000abcd"},
	}

	lines := PriceLines([]Item{it}, v)

	assert.True(t, lines[0].Eligible)
	assert.True(t, d(90).Equal(lines[0].DisplayUnitPrice))
}

func TestPriceLines_UnavailableLineIsNeverDiscounted(t *testing.T) {
	gone := serum(1)
	gone.Unavailable = true
	v := &model.Verdict{
		Type:            model.DiscountPercentage,
		Value:           d(10),
		EligibleItemIDs: []string{"serum-01"},
	}

	lines := PriceLines([]Item{gone}, v)

	assert.False(t, lines[0].Eligible)
	assert.True(t, d(100).Equal(lines[0].DisplayUnitPrice))
}

// Every cart surface renders from the same function, so two renders of the
// same state are identical.
func TestPriceLines_Deterministic(t *testing.T) {
	v := &model.Verdict{
		Type:            model.DiscountFixed,
		DiscountAmount:  d(35),
		EligibleItemIDs: []string{"serum-01", "shampoo-01"},
	}
	items := []Item{serum(3), shampoo(2)}

	assert.Equal(t, PriceLines(items, v), PriceLines(items, v))
}

func TestPriceLines_TrimsIDsBeforeMatching(t *testing.T) {
	padded := serum(1)
	padded.ID = "  serum-01 "
	v := &model.Verdict{
		Type:            model.DiscountPercentage,
		Value:           d(10),
		DiscountAmount:  d(10),
		EligibleItemIDs: []string{"serum-01"},
	}

	lines := PriceLines([]Item{padded}, v)

	assert.True(t, lines[0].Eligible)
	assert.True(t, d(90).Equal(lines[0].DisplayUnitPrice))
}
