// Package pricing holds the coupon engine: catalog snapshot resolution,
// eligibility matching and discount computation. Everything here is a pure
// function of its inputs; I/O lives in the service and repository layers.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
)

// KeyKind tells which identifier scheme an ItemKey belongs to.
type KeyKind uint8

const (
	// CatalogKey is the public product id exposed to storefront clients.
	CatalogKey KeyKind = iota + 1
	// InternalKey is the store-assigned ObjectID.
	InternalKey
)

func (k KeyKind) String() string {
	switch k {
	case CatalogKey:
		return "catalog"
	case InternalKey:
		return "internal"
	default:
		return "unknown"
	}
}

// ItemKey is one candidate identifier of a resolved item.
type ItemKey struct {
	Kind  KeyKind
	Value string
}

// ResolvedItem is a cart line joined with its authoritative catalog attributes.
// Category and Brand are normalized for comparison.
type ResolvedItem struct {
	LineID    string
	Keys      []ItemKey
	UnitPrice decimal.Decimal
	Quantity  int
	Category  string
	Brand     string
}

// LineTotal returns unit price times quantity.
func (r ResolvedItem) LineTotal() decimal.Decimal {
	return r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// Snapshot indexes catalog products by both of their identifiers.
type Snapshot map[string]*model.Product

// NewSnapshot indexes products by catalog id and internal id.
func NewSnapshot(products []model.Product) Snapshot {
	index := make(Snapshot, 2*len(products))
	for i := range products {
		p := &products[i]
		if id := normalizeID(p.ProductID); id != "" {
			index[id] = p
		}
		if id := normalizeID(p.InternalID()); id != "" {
			index[id] = p
		}
	}
	return index
}

// Find returns the product carrying id under either identifier scheme.
func (s Snapshot) Find(id string) (*model.Product, bool) {
	p, ok := s[normalizeID(id)]
	return p, ok
}

// Resolve joins cart lines with the catalog products returned for their ids.
// A line matches a product by either identifier. Lines with no matching
// product, or with a non-positive quantity, are dropped. Client-declared
// price, category and brand are ignored.
func Resolve(items []model.CartItem, products []model.Product) []ResolvedItem {
	snapshot := NewSnapshot(products)

	resolved := make([]ResolvedItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		p, ok := snapshot.Find(item.ID)
		if !ok {
			continue
		}
		resolved = append(resolved, ResolvedItem{
			LineID:    strings.TrimSpace(item.ID),
			Keys:      keysOf(p),
			UnitPrice: p.UnitPrice(),
			Quantity:  item.Quantity,
			Category:  normalizeName(p.Category),
			Brand:     normalizeName(p.Brand),
		})
	}
	return resolved
}

// Subtotal sums the line totals of items.
func Subtotal(items []ResolvedItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func keysOf(p *model.Product) []ItemKey {
	keys := make([]ItemKey, 0, 2)
	if id := strings.TrimSpace(p.ProductID); id != "" {
		keys = append(keys, ItemKey{Kind: CatalogKey, Value: id})
	}
	if id := p.InternalID(); id != "" {
		keys = append(keys, ItemKey{Kind: InternalKey, Value: id})
	}
	return keys
}

func normalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
