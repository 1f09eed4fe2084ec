package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/fairyhunter13/storefront-pricing/internal/model"
	"github.com/fairyhunter13/storefront-pricing/internal/service"
)

// RedisClient is the subset of *redis.Client used by the coupon cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedCouponRepository is a read-through Redis cache in front of the coupon registry.
// Redis failures degrade to registry reads; they are never returned to callers.
// Concurrent misses for the same code share one registry read.
type CachedCouponRepository struct {
	next   service.CouponRepositoryInterface
	rdb    RedisClient
	ttl    time.Duration
	misses singleflight.Group
}

// NewCachedCouponRepository wraps next with a cache whose entries live for ttl.
func NewCachedCouponRepository(next service.CouponRepositoryInterface, rdb RedisClient, ttl time.Duration) *CachedCouponRepository {
	return &CachedCouponRepository{next: next, rdb: rdb, ttl: ttl}
}

// sharedReadTimeout bounds a coalesced registry read.
const sharedReadTimeout = 5 * time.Second

func couponKey(code string) string {
	return "coupon:code:" + code
}

// GetByCode returns the cached coupon, or reads through to the registry and
// caches a found coupon. Not-found results are not cached.
func (r *CachedCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	key := couponKey(code)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var coupon model.Coupon
		if jsonErr := json.Unmarshal(raw, &coupon); jsonErr == nil {
			return &coupon, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cached coupon")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("key", key).Msg("coupon cache read failed")
	}

	// The shared read outlives any single caller's cancellation; each caller
	// still stops waiting when its own context ends.
	ch := r.misses.DoChan(key, func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		return r.readThrough(readCtx, key, code)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Coupon), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *CachedCouponRepository) readThrough(ctx context.Context, key, code string) (*model.Coupon, error) {
	coupon, err := r.next.GetByCode(ctx, code)
	if err != nil || coupon == nil {
		return coupon, err
	}

	if payload, jsonErr := json.Marshal(coupon); jsonErr == nil {
		if setErr := r.rdb.Set(ctx, key, payload, r.ttl).Err(); setErr != nil {
			log.Warn().Err(setErr).Str("key", key).Msg("coupon cache write failed")
		}
	}
	return coupon, nil
}

// Insert writes through to the registry and evicts any cached entry for the code.
func (r *CachedCouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	if err := r.next.Insert(ctx, coupon); err != nil {
		return err
	}
	if err := r.rdb.Del(ctx, couponKey(coupon.Code)).Err(); err != nil {
		log.Warn().Err(err).Str("coupon_code", coupon.Code).Msg("coupon cache eviction failed")
	}
	return nil
}
