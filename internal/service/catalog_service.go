package service

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
	"github.com/fairyhunter13/storefront-pricing/internal/pricing"
)

// CatalogService serves authoritative product snapshots to carts refreshing stale lines.
type CatalogService struct {
	catalog CatalogRepositoryInterface
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalog CatalogRepositoryInterface) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// Lookup returns one snapshot per requested id that exists in the catalog,
// keyed back to the id the caller used. Unknown ids are omitted.
func (s *CatalogService) Lookup(ctx context.Context, ids []string) ([]model.ProductSnapshot, error) {
	if len(ids) == 0 {
		return nil, ErrInvalidRequest
	}

	products, err := s.catalog.FindByIdentifiers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup products: %w", err)
	}

	snapshot := pricing.NewSnapshot(products)
	out := make([]model.ProductSnapshot, 0, len(ids))
	for _, id := range ids {
		p, ok := snapshot.Find(id)
		if !ok {
			continue
		}
		out = append(out, model.ProductSnapshot{
			ID:         id,
			ProductID:  p.ProductID,
			InternalID: p.InternalID(),
			Name:       p.Name,
			Category:   p.Category,
			Brand:      p.Brand,
			Price:      p.Price,
			Stock:      p.Stock,
		})
	}
	return out, nil
}
