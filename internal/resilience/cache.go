// Package resilience implements a cache-aside layer over the shared cache
// tier with a process-local stale fallback for when both the shared tier
// and the upstream source fail.
package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/metrics"
)

// DefaultStaleAfter bounds the age of a snapshot served after a failed
// fetch.
const DefaultStaleAfter = 30 * time.Minute

// DefaultFetchTimeout bounds a shared upstream fetch once it is detached
// from the caller that started it.
const DefaultFetchTimeout = time.Minute

const writeTimeout = 3 * time.Second

type snapshot struct {
	value      any
	capturedAt time.Time
	ttl        time.Duration
}

// Cache owns the in-memory snapshots for its keys. The shared tier is
// optional; with a nil shared cache the snapshots serve reads within their
// TTL and back the stale fallback after it.
type Cache struct {
	shared       domain.SharedCache
	staleAfter   time.Duration
	fetchTimeout time.Duration
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     *slog.Logger

	group singleflight.Group

	mu        sync.RWMutex
	snapshots map[string]snapshot

	writes sync.WaitGroup
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithFetchTimeout bounds each upstream fetch. d <= 0 keeps the default.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithMetrics records lookups and fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a Cache. staleAfter <= 0 selects DefaultStaleAfter.
func New(shared domain.SharedCache, staleAfter time.Duration, logger *slog.Logger, opts ...Option) *Cache {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	c := &Cache{
		shared:       shared,
		staleAfter:   staleAfter,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		logger:       logger.With(slog.String("component", "resilience_cache")),
		snapshots:    make(map[string]snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get reads key from the shared tier. Errors and misses both report false.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.shared == nil {
		return nil, false
	}
	data, err := c.shared.Get(ctx, key)
	switch {
	case err == nil:
		c.metrics.RecordCacheLookup("hit")
		return data, true
	case errors.Is(err, domain.ErrNotFound):
		c.metrics.RecordCacheLookup("miss")
	default:
		c.metrics.RecordCacheLookup("error")
		c.logger.WarnContext(ctx, "shared cache get failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return nil, false
}

// Set writes value to the shared tier in the background. A failed write is
// logged and never reaches the caller.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	if c.shared == nil {
		return
	}
	c.writes.Add(1)
	go func() {
		defer c.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := c.shared.Set(ctx, key, value, ttl); err != nil {
			c.logger.Warn("shared cache set failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Del removes key from the shared tier and drops its snapshot.
func (c *Cache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.snapshots, key)
	c.mu.Unlock()
	if c.shared == nil {
		return nil
	}
	if err := c.shared.Del(ctx, key); err != nil {
		return fmt.Errorf("resilience: del %s: %w", key, err)
	}
	return nil
}

// Wait blocks until background shared-tier writes have finished.
func (c *Cache) Wait() {
	c.writes.Wait()
}

func (c *Cache) remember(key string, v any, ttl time.Duration) {
	c.mu.Lock()
	c.snapshots[key] = snapshot{value: v, capturedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// fresh returns the snapshot for key while it is younger than its TTL.
func (c *Cache) fresh(key string) (any, bool) {
	s, ok := c.recall(key)
	if !ok || c.now().Sub(s.capturedAt) >= s.ttl {
		return nil, false
	}
	return s.value, true
}

func (c *Cache) recall(key string) (snapshot, bool) {
	c.mu.RLock()
	s, ok := c.snapshots[key]
	c.mu.RUnlock()
	return s, ok
}

// Fetch returns the value for key: from the shared tier when present, then
// from a snapshot younger than its TTL, otherwise from fetch. Concurrent
// fetches of one key share a single call, which runs detached from ctx so
// one caller giving up does not fail the others. When fetch fails the last successful value is returned if it is younger
// than the stale bound, otherwise the zero value. Fetch never returns the
// upstream error.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) T {
	if data, ok := c.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v
		}
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", slog.String("key", key))
	}
	if snap, ok := c.fresh(key); ok {
		if v, ok := snap.(T); ok {
			return v
		}
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		if !isEmpty(v) {
			c.remember(key, v, ttl)
			if data, err := json.Marshal(v); err == nil {
				c.Set(key, data, ttl)
			}
		}
		return v, nil
	})
	if err == nil {
		v, _ := res.(T)
		return v
	}

	c.logger.WarnContext(ctx, "upstream fetch failed",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	var zero T
	snap, ok := c.recall(key)
	if !ok {
		c.metrics.RecordFallback("none")
		return zero
	}
	age := c.now().Sub(snap.capturedAt)
	if age >= c.staleAfter {
		c.metrics.RecordFallback("expired")
		c.logger.WarnContext(ctx, "stale snapshot too old",
			slog.String("key", key),
			slog.Duration("age", age),
		)
		return zero
	}
	v, ok := snap.value.(T)
	if !ok {
		return zero
	}
	c.metrics.RecordFallback("served")
	c.logger.InfoContext(ctx, "serving stale snapshot",
		slog.String("key", key),
		slog.Duration("age", age),
	)
	return v
}

// Store records v as the latest snapshot for key and writes it to the
// shared tier, bypassing any cached entry. Empty values are ignored.
func Store[T any](c *Cache, key string, v T, ttl time.Duration) {
	if isEmpty(v) {
		return
	}
	c.remember(key, v, ttl)
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("encode cache entry failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	c.Set(key, data, ttl)
}

// isEmpty reports whether v is a nil or zero-length collection, or a value
// that declares itself empty.
func isEmpty(v any) bool {
	if e, ok := v.(interface{ Empty() bool }); ok {
		return e.Empty()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
