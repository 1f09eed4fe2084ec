package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
)

// KeySet is a set of normalized strings.
type KeySet map[string]struct{}

func newKeySet(values []string, normalize func(string) string) KeySet {
	set := make(KeySet, len(values))
	for _, v := range values {
		if n := normalize(v); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Has reports whether the normalized value is a member.
func (s KeySet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Constraints are a coupon's product, category and brand restrictions.
type Constraints struct {
	Products   KeySet
	Categories KeySet
	Brands     KeySet
}

// NewConstraints builds normalized constraint sets. Blank entries are ignored.
func NewConstraints(products, categories, brands []string) Constraints {
	return Constraints{
		Products:   newKeySet(products, normalizeID),
		Categories: newKeySet(categories, normalizeName),
		Brands:     newKeySet(brands, normalizeName),
	}
}

// ConstraintsFor returns the constraint sets of a coupon.
func ConstraintsFor(c *model.Coupon) Constraints {
	return NewConstraints(c.ApplicableProducts, c.ApplicableCategories, c.ApplicableBrands)
}

// Storewide reports whether no dimension is constrained.
func (c Constraints) Storewide() bool {
	return len(c.Products) == 0 && len(c.Categories) == 0 && len(c.Brands) == 0
}

// Matches reports whether an item satisfies at least one non-empty dimension.
// An empty dimension never contributes a match.
func (c Constraints) Matches(item ResolvedItem) bool {
	for _, key := range item.Keys {
		if c.Products.Has(normalizeID(key.Value)) {
			return true
		}
	}
	if item.Category != "" && c.Categories.Has(item.Category) {
		return true
	}
	return item.Brand != "" && c.Brands.Has(item.Brand)
}

// Eligibility is the outcome of matching a cart against a coupon's constraints.
type Eligibility struct {
	Items    []ResolvedItem
	Amount   decimal.Decimal // sum over eligible items
	Subtotal decimal.Decimal // sum over all resolved items
	Specific bool
}

// ItemIDs returns the line ids of the eligible items, deduplicated, in cart order.
func (e Eligibility) ItemIDs() []string {
	ids := make([]string, 0, len(e.Items))
	seen := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		if _, ok := seen[item.LineID]; ok {
			continue
		}
		seen[item.LineID] = struct{}{}
		ids = append(ids, item.LineID)
	}
	return ids
}

// Match selects the eligible items. For a storewide coupon every item is eligible.
func Match(items []ResolvedItem, c Constraints) Eligibility {
	subtotal := Subtotal(items)
	if c.Storewide() {
		return Eligibility{
			Items:    items,
			Amount:   subtotal,
			Subtotal: subtotal,
		}
	}

	eligible := make([]ResolvedItem, 0, len(items))
	for _, item := range items {
		if c.Matches(item) {
			eligible = append(eligible, item)
		}
	}
	return Eligibility{
		Items:    eligible,
		Amount:   Subtotal(eligible),
		Subtotal: subtotal,
		Specific: true,
	}
}
