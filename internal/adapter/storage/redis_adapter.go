package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	discountUsesKeyPrefix    = "discount:uses:"
	defaultIdempotencyKeyTTL = 24 * time.Hour
)

// KEYS[1] use counter, ARGV[1] stored uses_count, ARGV[2] max_uses.
var redeemDiscountScript = redis.NewScript(`
local key = KEYS[1]
local seed = tonumber(ARGV[1])
local max = tonumber(ARGV[2])

redis.call('SET', key, seed, 'NX')
local current = tonumber(redis.call('GET', key))
if current < max then
	redis.call('INCR', key)
	return 1
end

return 0
`)

var releaseDiscountScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]))
if current and current > 0 then
	redis.call('DECR', KEYS[1])
end
return 1
`)

type RedisAdapter struct {
	client         *redis.Client
	idempotencyTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, idempotencyTTL time.Duration) *RedisAdapter {
	if idempotencyTTL <= 0 {
		idempotencyTTL = defaultIdempotencyKeyTTL
	}
	return &RedisAdapter{client: client, idempotencyTTL: idempotencyTTL}
}

func (r *RedisAdapter) RedeemDiscount(ctx context.Context, code string, usesCount, maxUses int) (bool, error) {
	key := discountUsesKeyPrefix + code

	result, err := redeemDiscountScript.Run(ctx, r.client, []string{key}, usesCount, maxUses).Int()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}

func (r *RedisAdapter) ReleaseDiscount(ctx context.Context, code string) error {
	return releaseDiscountScript.Run(ctx, r.client, []string{discountUsesKeyPrefix + code}).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, r.idempotencyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ResetDiscount drops the cached counter so the next redemption reseeds it
// from the database.
func (r *RedisAdapter) ResetDiscount(ctx context.Context, code string) error {
	return r.client.Del(ctx, discountUsesKeyPrefix+code).Err()
}
