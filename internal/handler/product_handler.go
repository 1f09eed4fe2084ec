package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
)

// CatalogServiceInterface defines the product snapshot lookup.
type CatalogServiceInterface interface {
	Lookup(ctx context.Context, ids []string) ([]model.ProductSnapshot, error)
}

// ProductHandler serves authoritative product snapshots to storefront clients.
type ProductHandler struct {
	service   CatalogServiceInterface
	validator *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(svc CatalogServiceInterface, v *validator.Validate) *ProductHandler {
	return &ProductHandler{service: svc, validator: v}
}

// LookupProducts handles POST /api/products/lookup. Unknown ids are omitted.
func (h *ProductHandler) LookupProducts(c *fiber.Ctx) error {
	var req model.LookupProductsRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: ids must contain 1 to 200 non-blank ids"})
	}

	products, err := h.service.Lookup(c.UserContext(), req.IDs)
	if err != nil {
		log.Error().Err(err).Int("ids", len(req.IDs)).Msg("failed to look up products")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "catalog unavailable"})
	}

	return c.JSON(model.LookupProductsResponse{Products: products})
}
