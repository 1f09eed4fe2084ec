package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
)

// New creates a new validator instance with custom validations registered.
// This ensures consistent validation across the application and tests.
func New() *validator.Validate {
	v := validator.New()

	// "notblank" rejects whitespace-only strings (coupon codes, cart item ids)
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true // Not a string, let other validators handle it
		}
		return strings.TrimSpace(str) != ""
	})

	// "coupontype" accepts the supported discount types only
	_ = v.RegisterValidation("coupontype", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return model.DiscountType(str).Valid()
	})

	return v
}
