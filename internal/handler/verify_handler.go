package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-pricing/internal/metrics"
	"github.com/fairyhunter13/storefront-pricing/internal/model"
	"github.com/fairyhunter13/storefront-pricing/internal/pricing"
	"github.com/fairyhunter13/storefront-pricing/internal/service"
)

// PricingServiceInterface defines the coupon verification operation.
type PricingServiceInterface interface {
	Verify(ctx context.Context, req *model.VerifyCouponRequest) (*model.Verdict, error)
}

// VerifyHandler handles coupon verification requests.
type VerifyHandler struct {
	service   PricingServiceInterface
	validator *validator.Validate
	currency  string
}

// NewVerifyHandler creates a new VerifyHandler. currency prefixes amounts in user-facing messages.
func NewVerifyHandler(svc PricingServiceInterface, v *validator.Validate, currency string) *VerifyHandler {
	return &VerifyHandler{service: svc, validator: v, currency: currency}
}

// formatVerifyValidationError converts validator errors to stable messages.
func formatVerifyValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			switch fe.Field() {
			case "Code":
				if fe.Tag() == "max" {
					return "invalid request: code exceeds maximum length of 64"
				}
				return "invalid request: code is required"
			case "CartItems":
				if fe.Tag() == "max" {
					return "invalid request: cartItems exceeds maximum of 200 items"
				}
				return "invalid request: cartItems must contain at least one item"
			case "ID":
				return "invalid request: cart item id is required"
			case "Quantity":
				return "invalid request: cart item quantity must be at least 1"
			default:
				return "invalid request: " + fe.Field() + " is invalid"
			}
		}
	}
	return "invalid request"
}

// VerifyCoupon handles POST /api/coupons/verify.
// Every response carries the same shape; callers branch on "success".
func (h *VerifyHandler) VerifyCoupon(c *fiber.Ctx) error {
	var req model.VerifyCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return h.reject(c, fiber.StatusBadRequest, model.ReasonMalformedRequest, "invalid request body", nil)
	}
	if err := h.validator.Struct(req); err != nil {
		return h.reject(c, fiber.StatusBadRequest, model.ReasonMalformedRequest, formatVerifyValidationError(err), nil)
	}

	verdict, err := h.service.Verify(c.UserContext(), &req)
	if err != nil {
		return h.fail(c, &req, err)
	}

	metrics.RecordVerification(metrics.OutcomeSuccess)
	log.Info().
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("coupon_code", verdict.Code).
		Str("discount_amount", verdict.DiscountAmount.String()).
		Int("eligible_items", len(verdict.EligibleItemIDs)).
		Msg("coupon verified")

	return c.JSON(model.NewVerifyCouponResponse(verdict))
}

func (h *VerifyHandler) fail(c *fiber.Ctx, req *model.VerifyCouponRequest, err error) error {
	var below *pricing.BelowMinimumError
	switch {
	case errors.As(err, &below):
		msg := fmt.Sprintf("add %s more to use this coupon (minimum order %s)",
			h.money(below.Shortfall), h.money(below.Required))
		return h.reject(c, fiber.StatusUnprocessableEntity, model.ReasonBelowMinimum, msg, below)
	case errors.Is(err, service.ErrInvalidRequest):
		return h.reject(c, fiber.StatusBadRequest, model.ReasonMalformedRequest, "invalid request", nil)
	case errors.Is(err, service.ErrCouponNotFound):
		return h.reject(c, fiber.StatusNotFound, model.ReasonNotFound, "invalid coupon code", nil)
	case errors.Is(err, service.ErrCouponExpired):
		return h.reject(c, fiber.StatusUnprocessableEntity, model.ReasonExpired, "coupon has expired", nil)
	case errors.Is(err, service.ErrUsageExhausted):
		return h.reject(c, fiber.StatusUnprocessableEntity, model.ReasonUsageExhausted, "coupon usage limit reached", nil)
	case errors.Is(err, service.ErrNoEligibleItems):
		return h.reject(c, fiber.StatusUnprocessableEntity, model.ReasonNoEligibleItems,
			"coupon is not applicable to any items in your cart", nil)
	}

	log.Error().
		Err(err).
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("coupon_code", model.NormalizeCode(req.Code)).
		Msg("coupon verification failed")
	return h.reject(c, fiber.StatusServiceUnavailable, model.ReasonUnavailable,
		"unable to verify coupon right now, please try again", nil)
}

func (h *VerifyHandler) reject(c *fiber.Ctx, status int, reason, message string, below *pricing.BelowMinimumError) error {
	metrics.RecordVerification(reason)
	if status != fiber.StatusServiceUnavailable {
		log.Info().
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("reason", reason).
			Msg("coupon rejected")
	}

	resp := model.VerifyCouponResponse{Success: false, Reason: reason, Message: message}
	if below != nil {
		resp.Shortfall = below.Shortfall.InexactFloat64()
	}
	return c.Status(status).JSON(resp)
}

// money renders whole amounts without decimals and fractional ones with two.
func (h *VerifyHandler) money(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return h.currency + d.Truncate(0).String()
	}
	return h.currency + d.StringFixed(2)
}
