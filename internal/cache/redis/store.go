package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

// Store implements domain.SharedCache with plain string values under the
// client namespace.
//
// Key schema:
//
//	{ns}:cache:{key} - serialized value with a TTL
type Store struct {
	c   *Client
	rdb *redis.Client
}

// NewStore creates a Store backed by the given Client.
func NewStore(c *Client) *Store {
	return &Store{c: c, rdb: c.Underlying()}
}

func (s *Store) cacheKey(key string) string {
	return s.c.Key("cache", key)
}

// Get returns the stored bytes, or domain.ErrNotFound on a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.cacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return data, nil
}

// Set stores value for ttl. A non-positive ttl stores without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, s.cacheKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Del removes key. Deleting a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("redis: del %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SharedCache = (*Store)(nil)
