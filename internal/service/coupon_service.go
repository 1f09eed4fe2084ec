package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
)

// CouponRepositoryInterface defines the interface for coupon registry access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
}

// CouponService provides back-office operations on the coupon registry.
type CouponService struct {
	couponRepo CouponRepositoryInterface
}

// NewCouponService creates a new CouponService with the given repository.
func NewCouponService(couponRepo CouponRepositoryInterface) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Create creates a new coupon from the request.
// Returns ErrCouponExists if a coupon with the same normalized code already exists.
// Returns ErrInvalidRequest if request data is nil or incomplete.
func (s *CouponService) Create(ctx context.Context, req *model.CreateCouponRequest) error {
	if req == nil || req.Value == nil {
		return ErrInvalidRequest
	}
	code := model.NormalizeCode(req.Code)
	typ := model.DiscountType(req.Type)
	if code == "" || !typ.Valid() || *req.Value <= 0 || req.MinOrderAmount < 0 {
		return ErrInvalidRequest
	}

	coupon := &model.Coupon{
		ID:                   uuid.New(),
		Code:                 code,
		Type:                 typ,
		Value:                decimal.NewFromFloat(*req.Value),
		MinOrderAmount:       decimal.NewFromFloat(req.MinOrderAmount),
		ExpirationDate:       req.ExpirationDate,
		IsActive:             true,
		UsageLimit:           req.UsageLimit,
		ApplicableProducts:   trimAll(req.ApplicableProducts),
		ApplicableCategories: trimAll(req.ApplicableCategories),
		ApplicableBrands:     trimAll(req.ApplicableBrands),
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if req.MaxDiscountAmount != nil {
		coupon.MaxDiscountAmount = decimal.NewNullDecimal(decimal.NewFromFloat(*req.MaxDiscountAmount))
	}

	return s.couponRepo.Insert(ctx, coupon)
}

// GetByCode retrieves a coupon by code, case-insensitively.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) GetByCode(ctx context.Context, code string) (*model.CouponResponse, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, model.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return model.NewCouponResponse(coupon), nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
