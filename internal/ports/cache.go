package ports

import (
	"context"
	"time"
)

// Cache is the cache-aside port shared by the Redis and in-memory local
// implementations. It never owns correctness: a cache miss or Ping failure
// always falls back to the Gateway, which remains the source of truth.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
