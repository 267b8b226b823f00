package port

import "context"

type CacheRepository interface {
	// RedeemDiscount atomically takes one use of a limited discount code, seeding the
	// counter with usesCount on first touch. Returns false once maxUses is reached.
	RedeemDiscount(ctx context.Context, code string, usesCount, maxUses int) (bool, error)

	// ReleaseDiscount gives a use back (for rollback on failure)
	ReleaseDiscount(ctx context.Context, code string) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)
}
