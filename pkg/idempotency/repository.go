package idempotency

import (
	"context"
	"time"
)

// KeyRepository stores idempotency keys. AcquireLock must be atomic.
type KeyRepository interface {
	// AcquireLock inserts the key, or locks the existing one, and returns the
	// stored document. The boolean is true when the key was created by this call.
	AcquireLock(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error)

	// ReleaseLock drops the lock so the same key can be retried.
	ReleaseLock(ctx context.Context, keyID string) error

	// StoreResponse marks the key completed and caches the response.
	StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error

	Get(ctx context.Context, key, serviceID, userID string) (*IdempotencyKey, error)

	// Clean removes keys that expired before the given time.
	Clean(ctx context.Context, before time.Time) (int64, error)

	EnsureIndexes(ctx context.Context) error
}
