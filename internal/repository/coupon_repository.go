package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
	"github.com/fairyhunter13/storefront-pricing/internal/service"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CouponRepository provides data access for the coupon registry using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

const couponColumns = `id, code, type, value, min_order_amount, max_discount_amount, expiration_date,
	is_active, usage_limit, used_count, applicable_products, applicable_categories, applicable_brands, created_at`

// Insert inserts a new coupon. The code must already be normalized.
// Returns service.ErrCouponExists if a coupon with the same code already exists.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (id, code, type, value, min_order_amount, max_discount_amount, expiration_date,
			is_active, usage_limit, applicable_products, applicable_categories, applicable_brands)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		coupon.ID, coupon.Code, string(coupon.Type), coupon.Value, coupon.MinOrderAmount, coupon.MaxDiscountAmount,
		coupon.ExpirationDate, coupon.IsActive, coupon.UsageLimit,
		emptyIfNil(coupon.ApplicableProducts), emptyIfNil(coupon.ApplicableCategories), emptyIfNil(coupon.ApplicableBrands))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by its normalized code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	var (
		coupon model.Coupon
		typ    string
	)
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&coupon.ID,
		&coupon.Code,
		&typ,
		&coupon.Value,
		&coupon.MinOrderAmount,
		&coupon.MaxDiscountAmount,
		&coupon.ExpirationDate,
		&coupon.IsActive,
		&coupon.UsageLimit,
		&coupon.UsedCount,
		&coupon.ApplicableProducts,
		&coupon.ApplicableCategories,
		&coupon.ApplicableBrands,
		&coupon.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	coupon.Type = model.DiscountType(typ)
	return &coupon, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
