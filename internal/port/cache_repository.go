package port

import "context"

type CacheRepository interface {
	// SetIdempotency claims a key for duplicate-request detection, returning
	// false if the key was already claimed.
	SetIdempotency(ctx context.Context, key string) (bool, error)
}
