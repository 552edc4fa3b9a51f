package ports

import (
	"context"
	"time"
)

// Store is the pluggable external persistence contract spec.md 9 leaves as
// an injectable collaborator for sticky-session and rate-limit state that
// must survive a restart; no implementation ships in this module.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error)
}
