package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
	"github.com/fairyhunter13/storefront-pricing/internal/pricing"
)

// CatalogRepositoryInterface defines batch product lookup by either identifier.
// Unknown ids are omitted from the result.
type CatalogRepositoryInterface interface {
	FindByIdentifiers(ctx context.Context, ids []string) ([]model.Product, error)
}

// PricingService verifies coupons against carts.
// It holds no mutable state; concurrent calls are independent.
type PricingService struct {
	coupons CouponRepositoryInterface
	catalog CatalogRepositoryInterface
	timeout time.Duration
	now     func() time.Time
}

// NewPricingService creates a PricingService. A positive timeout bounds each verification.
func NewPricingService(coupons CouponRepositoryInterface, catalog CatalogRepositoryInterface, timeout time.Duration) *PricingService {
	return &PricingService{
		coupons: coupons,
		catalog: catalog,
		timeout: timeout,
		now:     time.Now,
	}
}

// Verify checks a coupon code against a cart and computes the discount.
// Returns:
//   - ErrInvalidRequest for a missing code or empty/invalid cart lines
//   - ErrCouponNotFound for unknown or inactive coupons
//   - ErrCouponExpired, ErrUsageExhausted, ErrNoEligibleItems
//   - *pricing.BelowMinimumError (matches pricing.ErrBelowMinimum)
//   - ErrVerificationUnavailable wrapping registry or catalog failures
//
// The subtotal is always recomputed from catalog prices; the declared cart
// total is informational.
func (s *PricingService) Verify(ctx context.Context, req *model.VerifyCouponRequest) (*model.Verdict, error) {
	if err := checkVerifyRequest(req); err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	code := model.NormalizeCode(req.Code)
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: get coupon %s: %w", ErrVerificationUnavailable, code, err)
	}
	if coupon == nil || !coupon.IsActive {
		return nil, ErrCouponNotFound
	}
	if coupon.IsExpired(s.now()) {
		return nil, ErrCouponExpired
	}
	if coupon.IsExhausted() {
		return nil, ErrUsageExhausted
	}

	products, err := s.lookupCatalog(ctx, req.CartItems)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerificationUnavailable, err)
	}

	resolved := pricing.Resolve(req.CartItems, products)
	eligibility := pricing.Match(resolved, pricing.ConstraintsFor(coupon))
	if len(eligibility.Items) == 0 {
		return nil, ErrNoEligibleItems
	}

	discount, err := pricing.Calculate(pricing.RuleFor(coupon), eligibility)
	if err != nil {
		if errors.Is(err, pricing.ErrBelowMinimum) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: calculate discount for %s: %w", ErrVerificationUnavailable, code, err)
	}

	declared := decimal.NewFromFloat(req.CartTotal)
	if !declared.Equal(eligibility.Subtotal) {
		log.Debug().
			Str("coupon_code", code).
			Str("declared_total", declared.String()).
			Str("catalog_subtotal", eligibility.Subtotal.String()).
			Msg("declared cart total differs from catalog subtotal")
	}

	return &model.Verdict{
		Code:            coupon.Code,
		Type:            coupon.Type,
		Value:           coupon.Value,
		DiscountAmount:  discount,
		Subtotal:        eligibility.Subtotal,
		EligibleItemIDs: eligibility.ItemIDs(),
		Message:         "coupon applied successfully",
	}, nil
}

// lookupCatalog fetches the catalog snapshot for the cart's distinct ids.
// A panicking driver is reported as an error rather than unwinding the request.
func (s *PricingService) lookupCatalog(ctx context.Context, items []model.CartItem) (products []model.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			products, err = nil, fmt.Errorf("catalog lookup panicked: %v", r)
		}
	}()

	ids := distinctIDs(items)
	products, err = s.catalog.FindByIdentifiers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog: %w", err)
	}
	return products, nil
}

func checkVerifyRequest(req *model.VerifyCouponRequest) error {
	if req == nil || model.NormalizeCode(req.Code) == "" || len(req.CartItems) == 0 {
		return ErrInvalidRequest
	}
	for _, item := range req.CartItems {
		if strings.TrimSpace(item.ID) == "" || item.Quantity < 1 {
			return ErrInvalidRequest
		}
	}
	return nil
}

func distinctIDs(items []model.CartItem) []string {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
