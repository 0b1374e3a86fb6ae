package repository

import (
	"context"
	"time"
)

// ReplayStore remembers the outcome of requests carrying an idempotency key, so a retried
// request gets the first answer instead of running again.
// Implementations: Redis (production) or in-memory (local dev / single instance).
type ReplayStore interface {
	// Reserve marks key as in flight. It reports false when the key is already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Complete stores the recorded response for key.
	Complete(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	// Load returns the recorded response, or nil while the key is unknown or still in flight.
	Load(ctx context.Context, key string) ([]byte, error)
	// Release drops a reservation so the request may be retried.
	Release(ctx context.Context, key string) error
}
