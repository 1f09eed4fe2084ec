package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
	"github.com/fairyhunter13/storefront-pricing/internal/service"
)

// CouponServiceInterface defines the interface for coupon registry operations.
type CouponServiceInterface interface {
	Create(ctx context.Context, req *model.CreateCouponRequest) error
	GetByCode(ctx context.Context, code string) (*model.CouponResponse, error)
}

// CouponHandler handles HTTP requests for coupon registry operations.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// formatValidationError converts validator errors to stable client messages.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			field := fe.Field()
			tag := fe.Tag()

			switch field {
			case "Code":
				if tag == "required" {
					return "invalid request: code is required"
				}
				if tag == "notblank" {
					return "invalid request: code cannot be whitespace only"
				}
				if tag == "max" {
					return "invalid request: code exceeds maximum length of 64"
				}
				return "invalid request: code is invalid"
			case "Type":
				return "invalid request: type must be percentage or fixed"
			case "Value":
				if tag == "required" {
					return "invalid request: value is required"
				}
				return "invalid request: value must be greater than 0"
			case "MinOrderAmount":
				return "invalid request: minOrderAmount must not be negative"
			case "MaxDiscountAmount":
				return "invalid request: maxDiscountAmount must be greater than 0"
			case "UsageLimit":
				return "invalid request: usageLimit must be at least 1"
			default:
				if tag == "notblank" {
					return "invalid request: " + field + " cannot contain blank entries"
				}
				if tag == "required" {
					return "invalid request: " + field + " is required"
				}
				return "invalid request: " + field + " is invalid"
			}
		}
	}
	return "invalid request"
}

// CreateCoupon handles POST /api/coupons requests to register a new coupon.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if err := h.service.Create(c.UserContext(), &req); err != nil {
		if errors.Is(err, service.ErrCouponExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().Err(err).Str("coupon_code", req.Code).Msg("failed to create coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("coupon_code", model.NormalizeCode(req.Code)).
		Str("type", req.Type).
		Msg("coupon created")

	return c.Status(fiber.StatusCreated).Send(nil)
}

// GetCoupon handles GET /api/coupons/:code requests to retrieve coupon details.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request: code is required",
		})
	}

	coupon, err := h.service.GetByCode(c.UserContext(), code)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "coupon not found",
			})
		}
		log.Error().Err(err).Str("coupon_code", code).Msg("failed to get coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	log.Info().
		Str("coupon_code", coupon.Code).
		Int("used_count", coupon.UsedCount).
		Msg("coupon retrieved")

	return c.JSON(coupon)
}
