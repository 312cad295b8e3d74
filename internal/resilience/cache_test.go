package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memCache is an in-memory domain.SharedCache.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
	failSet bool
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("read only replica")
	}
	m.data[key] = value
	return nil
}

func (m *memCache) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var errUpstream = errors.New("upstream down")

func ok(v []string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) { return v, nil }
}

func fail(context.Context) ([]string, error) { return nil, errUpstream }

func TestFetchStaleFallbackWindow(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want int
	}{
		{"ten minutes old is served", 10 * time.Minute, 2},
		{"forty minutes old is dropped", 40 * time.Minute, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shared := newMemCache()
			clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
			c := New(shared, 30*time.Minute, discardLogger(), WithClock(clk.Now))

			Fetch(context.Background(), c, "markets:top", time.Minute, ok([]string{"a", "b"}))
			c.Wait()

			// the shared tier now fails too
			shared.failGet = true
			clk.Advance(tt.age)

			got := Fetch(context.Background(), c, "markets:top", time.Minute, fail)
			if len(got) != tt.want {
				t.Errorf("Fetch() returned %d items, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFetchPrefersSharedTier(t *testing.T) {
	shared := newMemCache()
	shared.data["k"] = []byte(`["cached"]`)
	c := New(shared, 0, discardLogger())

	var calls atomic.Int32
	got := Fetch(context.Background(), c, "k", time.Minute, func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"live"}, nil
	})
	if len(got) != 1 || got[0] != "cached" {
		t.Errorf("Fetch() = %v, want [cached]", got)
	}
	if calls.Load() != 0 {
		t.Errorf("fetch called %d times on a cache hit", calls.Load())
	}
}

func TestFetchPopulatesSharedTier(t *testing.T) {
	shared := newMemCache()
	c := New(shared, 0, discardLogger())

	Fetch(context.Background(), c, "k", time.Minute, ok([]string{"live"}))
	c.Wait()

	if string(shared.data["k"]) != `["live"]` {
		t.Errorf("shared tier = %q, want [\"live\"]", shared.data["k"])
	}
}

func TestFetchWriteFailureDoesNotFailRead(t *testing.T) {
	shared := newMemCache()
	shared.failSet = true
	c := New(shared, 0, discardLogger())

	got := Fetch(context.Background(), c, "k", time.Minute, ok([]string{"live"}))
	c.Wait()
	if len(got) != 1 {
		t.Errorf("Fetch() = %v, want [live]", got)
	}
}

func TestFetchEmptySuccessKeepsSnapshot(t *testing.T) {
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := New(nil, 0, discardLogger(), WithClock(clk.Now))
	Fetch(context.Background(), c, "k", time.Minute, ok([]string{"good"}))
	clk.Advance(2 * time.Minute)
	Fetch(context.Background(), c, "k", time.Minute, ok(nil))

	got := Fetch(context.Background(), c, "k", time.Minute, fail)
	if len(got) != 1 || got[0] != "good" {
		t.Errorf("Fetch() = %v, want [good]", got)
	}
}

func TestFetchServesSnapshotWithinTTL(t *testing.T) {
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := New(nil, 30*time.Minute, discardLogger(), WithClock(clk.Now))

	var calls atomic.Int32
	fetch := func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"live"}, nil
	}
	for i := 0; i < 3; i++ {
		Fetch(context.Background(), c, "k", time.Minute, fetch)
		clk.Advance(10 * time.Second)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times for 3 reads within TTL, want 1", n)
	}

	clk.Advance(time.Minute)
	Fetch(context.Background(), c, "k", time.Minute, fetch)
	if n := calls.Load(); n != 2 {
		t.Errorf("fetch called %d times after TTL expiry, want 2", n)
	}
}

func TestStoredSnapshotServesReads(t *testing.T) {
	c := New(nil, 0, discardLogger())
	Store(c, "k", []string{"stored"}, time.Minute)

	var calls atomic.Int32
	got := Fetch(context.Background(), c, "k", time.Minute, func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"recomputed"}, nil
	})
	if len(got) != 1 || got[0] != "stored" || calls.Load() != 0 {
		t.Errorf("Fetch() = %v after %d fetches, want [stored] without fetching", got, calls.Load())
	}
}

func TestFetchOutlivesCancelledCaller(t *testing.T) {
	c := New(nil, 0, discardLogger(), WithFetchTimeout(5*time.Second))
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fetch := func(ctx context.Context) ([]string, error) {
		once.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := ctx.Deadline(); !ok {
			return nil, errors.New("fetch context has no deadline")
		}
		return []string{"x"}, nil
	}

	first, cancel := context.WithCancel(context.Background())
	results := make(chan []string, 2)
	go func() { results <- Fetch(first, c, "k", time.Minute, fetch) }()
	<-started
	go func() { results <- Fetch(context.Background(), c, "k", time.Minute, fetch) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)

	for i := 0; i < 2; i++ {
		if got := <-results; len(got) != 1 || got[0] != "x" {
			t.Errorf("waiter %d got %v, want [x]", i, got)
		}
	}
}

func TestFetchNoSnapshotReturnsZero(t *testing.T) {
	c := New(newMemCache(), 0, discardLogger())
	if got := Fetch(context.Background(), c, "k", time.Minute, fail); got != nil {
		t.Errorf("Fetch() = %v, want nil", got)
	}
}

func TestFetchCollapsesConcurrentCalls(t *testing.T) {
	c := New(nil, 0, discardLogger())
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"x"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Fetch(context.Background(), c, "k", time.Minute, fetch)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
}

func TestStoreSeedsBothTiers(t *testing.T) {
	shared := newMemCache()
	c := New(shared, 0, discardLogger())

	Store(c, "k", []string{"forced"}, time.Minute)
	Store(c, "empty", []string(nil), time.Minute)
	c.Wait()

	if _, err := shared.Get(context.Background(), "k"); err != nil {
		t.Fatalf("shared tier missing stored value: %v", err)
	}
	if _, err := shared.Get(context.Background(), "empty"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("empty value should not be written, got err=%v", err)
	}

	shared.failGet = true
	got := Fetch(context.Background(), c, "k", time.Minute, fail)
	if len(got) != 1 || got[0] != "forced" {
		t.Errorf("Fetch() = %v, want the stored snapshot", got)
	}
}
