package port

import "context"

type KeyValueStore interface {
	// Get returns the stored value, false if the key is absent
	Get(ctx context.Context, key string) (string, bool, error)

	// Set overwrites the value stored under key
	Set(ctx context.Context, key, value string) error
}

type IdempotencyStore interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a key so the same request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}
