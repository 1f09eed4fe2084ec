package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
)

// mockCouponRepository is a mock implementation of CouponRepositoryInterface.
type mockCouponRepository struct {
	insertFn    func(ctx context.Context, coupon *model.Coupon) error
	getByCodeFn func(ctx context.Context, code string) (*model.Coupon, error)
}

func (m *mockCouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, coupon)
	}
	return nil
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, nil
}

func floatPtr(f float64) *float64 {
	return &f
}

func intPtr(i int) *int {
	return &i
}

func TestCouponService_Create_Success(t *testing.T) {
	var captured *model.Coupon
	repo := &mockCouponRepository{
		insertFn: func(ctx context.Context, coupon *model.Coupon) error {
			captured = coupon
			return nil
		},
	}

	svc := NewCouponService(repo)
	req := &model.CreateCouponRequest{
		Code:                 "  save20 ",
		Type:                 "percentage",
		Value:                floatPtr(20),
		MinOrderAmount:       500,
		MaxDiscountAmount:    floatPtr(30),
		UsageLimit:           intPtr(100),
		ApplicableCategories: []string{" skincare ", "  "},
	}

	err := svc.Create(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.NotEqual(t, uuid.Nil, captured.ID)
	assert.Equal(t, "SAVE20", captured.Code, "code is stored normalized")
	assert.Equal(t, model.DiscountPercentage, captured.Type)
	assert.True(t, decimal.NewFromInt(20).Equal(captured.Value))
	assert.True(t, decimal.NewFromInt(500).Equal(captured.MinOrderAmount))
	assert.True(t, captured.MaxDiscountAmount.Valid)
	assert.True(t, decimal.NewFromInt(30).Equal(captured.MaxDiscountAmount.Decimal))
	assert.True(t, captured.IsActive, "coupons are active unless stated otherwise")
	assert.Equal(t, 100, *captured.UsageLimit)
	assert.Equal(t, []string{"skincare"}, captured.ApplicableCategories)
	assert.Empty(t, captured.ApplicableProducts)
}

func TestCouponService_Create_Inactive(t *testing.T) {
	var captured *model.Coupon
	repo := &mockCouponRepository{
		insertFn: func(ctx context.Context, coupon *model.Coupon) error {
			captured = coupon
			return nil
		},
	}
	inactive := false

	err := NewCouponService(repo).Create(context.Background(), &model.CreateCouponRequest{
		Code: "OFF", Type: "fixed", Value: floatPtr(50), IsActive: &inactive,
	})

	require.NoError(t, err)
	assert.False(t, captured.IsActive)
	assert.False(t, captured.MaxDiscountAmount.Valid)
}

func TestCouponService_Create_DuplicateCoupon(t *testing.T) {
	repo := &mockCouponRepository{
		insertFn: func(ctx context.Context, coupon *model.Coupon) error {
			return ErrCouponExists
		},
	}

	err := NewCouponService(repo).Create(context.Background(), &model.CreateCouponRequest{
		Code: "SAVE10", Type: "fixed", Value: floatPtr(10),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCouponExists))
}

func TestCouponService_Create_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  *model.CreateCouponRequest
	}{
		{name: "nil request", req: nil},
		{name: "nil value", req: &model.CreateCouponRequest{Code: "A", Type: "fixed"}},
		{name: "blank code", req: &model.CreateCouponRequest{Code: "  ", Type: "fixed", Value: floatPtr(1)}},
		{name: "unknown type", req: &model.CreateCouponRequest{Code: "A", Type: "bogo", Value: floatPtr(1)}},
		{name: "zero value", req: &model.CreateCouponRequest{Code: "A", Type: "fixed", Value: floatPtr(0)}},
		{name: "negative minimum", req: &model.CreateCouponRequest{Code: "A", Type: "fixed", Value: floatPtr(1), MinOrderAmount: -1}},
	}

	svc := NewCouponService(&mockCouponRepository{
		insertFn: func(ctx context.Context, coupon *model.Coupon) error {
			t.Fatal("repository must not be called for invalid requests")
			return nil
		},
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestCouponService_GetByCode_CaseInsensitive(t *testing.T) {
	var lookedUp string
	repo := &mockCouponRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			lookedUp = code
			return &model.Coupon{
				Code:              "SAVE10",
				Type:              model.DiscountPercentage,
				Value:             decimal.NewFromInt(10),
				MaxDiscountAmount: decimal.NewNullDecimal(decimal.NewFromInt(25)),
				IsActive:          true,
			}, nil
		},
	}

	resp, err := NewCouponService(repo).GetByCode(context.Background(), " Save10")

	require.NoError(t, err)
	assert.Equal(t, "SAVE10", lookedUp)
	assert.Equal(t, "SAVE10", resp.Code)
	assert.Equal(t, 10.0, resp.Value)
	require.NotNil(t, resp.MaxDiscountAmount)
	assert.Equal(t, 25.0, *resp.MaxDiscountAmount)
	assert.NotNil(t, resp.ApplicableBrands, "constraint lists are empty slices, not nil")
}

func TestCouponService_GetByCode_NotFound(t *testing.T) {
	resp, err := NewCouponService(&mockCouponRepository{}).GetByCode(context.Background(), "NOPE")

	assert.ErrorIs(t, err, ErrCouponNotFound)
	assert.Nil(t, resp)
}

func TestCouponService_GetByCode_RepoError(t *testing.T) {
	dbErr := errors.New("database connection failed")
	repo := &mockCouponRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			return nil, dbErr
		},
	}

	_, err := NewCouponService(repo).GetByCode(context.Background(), "SAVE10")

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrCouponNotFound)
}
