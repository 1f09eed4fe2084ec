package repository

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
)

// ProductFinder is the subset of *mongo.Collection used by CatalogRepository.
type ProductFinder interface {
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
}

// CatalogRepository reads product snapshots from the Mongo catalog.
type CatalogRepository struct {
	products ProductFinder
}

// NewCatalogRepository creates a CatalogRepository over the products collection.
func NewCatalogRepository(products *mongo.Collection) *CatalogRepository {
	return &CatalogRepository{products: products}
}

// NewCatalogRepositoryWithFinder creates a CatalogRepository with a custom finder.
// This is primarily used for testing.
func NewCatalogRepositoryWithFinder(products ProductFinder) *CatalogRepository {
	return &CatalogRepository{products: products}
}

var productProjection = bson.D{
	{Key: "_id", Value: 1},
	{Key: "product_id", Value: 1},
	{Key: "name", Value: 1},
	{Key: "category", Value: 1},
	{Key: "brand", Value: 1},
	{Key: "price", Value: 1},
	{Key: "stock", Value: 1},
	{Key: "status", Value: 1},
}

// FindByIdentifiers fetches the products whose public product_id or internal
// ObjectID is among ids, in a single query. Unknown ids are simply absent.
func (r *CatalogRepository) FindByIdentifiers(ctx context.Context, ids []string) ([]model.Product, error) {
	filter, ok := identifierFilter(ids)
	if !ok {
		return []model.Product{}, nil
	}

	cursor, err := r.products.Find(ctx, filter, options.Find().SetProjection(productProjection))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []model.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// identifierFilter builds an $or over both identifier schemes. Ids that are
// valid ObjectID hex strings are also matched against _id. It returns false
// when no usable id remains.
func identifierFilter(ids []string) (bson.D, bool) {
	publicIDs := make([]string, 0, len(ids))
	objectIDs := make([]bson.ObjectID, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		publicIDs = append(publicIDs, id)
		if oid, err := bson.ObjectIDFromHex(strings.ToLower(id)); err == nil {
			objectIDs = append(objectIDs, oid)
		}
	}
	if len(publicIDs) == 0 {
		return nil, false
	}

	clauses := bson.A{bson.D{{Key: "product_id", Value: bson.D{{Key: "$in", Value: publicIDs}}}}}
	if len(objectIDs) > 0 {
		clauses = append(clauses, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: objectIDs}}}})
	}
	return bson.D{{Key: "$or", Value: clauses}}, true
}
