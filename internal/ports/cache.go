package ports

import (
	"context"
	"time"
)

// Cache is a best-effort key-value store for the latest scan status per
// package. Adapters are backed by SQLite, Redis or process memory; a zero
// ttl means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
