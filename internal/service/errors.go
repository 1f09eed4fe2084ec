package service

import "errors"

var (
	// ErrCouponExists is returned when attempting to create a coupon that already exists
	ErrCouponExists = errors.New("coupon already exists")

	// ErrCouponNotFound is returned when a coupon does not exist or is inactive.
	// Both cases are reported identically so callers cannot probe for codes.
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponExpired is returned when the coupon's expiration date has passed
	ErrCouponExpired = errors.New("coupon expired")

	// ErrUsageExhausted is returned when the coupon reached its global usage limit
	ErrUsageExhausted = errors.New("coupon usage limit reached")

	// ErrNoEligibleItems is returned when no cart item satisfies the coupon's constraints
	ErrNoEligibleItems = errors.New("coupon not applicable to cart items")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrVerificationUnavailable wraps registry or catalog failures during verification
	ErrVerificationUnavailable = errors.New("coupon verification unavailable")
)
