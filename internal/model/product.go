package model

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Product is a catalog document. It carries two identifiers: the internal
// ObjectID and the public catalog id exposed to storefront clients.
type Product struct {
	ID        bson.ObjectID `json:"-" bson:"_id,omitempty"`
	ProductID string        `json:"product_id" bson:"product_id"`
	Name      string        `json:"name" bson:"name"`
	Category  string        `json:"category" bson:"category"`
	Brand     string        `json:"brand" bson:"brand"`
	Price     float64       `json:"price" bson:"price"`
	Stock     int           `json:"stock" bson:"stock"`
	Status    string        `json:"status" bson:"status"`
}

// InternalID returns the hex form of the internal ObjectID, or "" when unset.
func (p *Product) InternalID() string {
	if p.ID.IsZero() {
		return ""
	}
	return p.ID.Hex()
}

// UnitPrice returns the catalog price as a decimal.
func (p *Product) UnitPrice() decimal.Decimal {
	return decimal.NewFromFloat(p.Price)
}

// LookupProductsRequest is the DTO for POST /api/products/lookup.
type LookupProductsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=200,dive,notblank"`
}

// ProductSnapshot is the authoritative view of one product at lookup time.
type ProductSnapshot struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"productId"`
	InternalID string  `json:"internalId"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Brand      string  `json:"brand"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
}

// LookupProductsResponse is the response DTO for POST /api/products/lookup.
// Unknown ids are omitted from Products.
type LookupProductsResponse struct {
	Products []ProductSnapshot `json:"products"`
}
