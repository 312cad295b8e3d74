package domain

import (
	"context"
	"time"
)

// SharedCache is the byte-oriented shared cache tier. Get returns
// ErrNotFound on a miss.
type SharedCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus publishes change notifications to interested subscribers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
