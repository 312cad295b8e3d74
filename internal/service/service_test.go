package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alanyoungcy/marketlens/internal/arbitrage"
	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/election"
	"github.com/alanyoungcy/marketlens/internal/listing"
	"github.com/alanyoungcy/marketlens/internal/resilience"
	"github.com/alanyoungcy/marketlens/internal/topic"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memCache is an in-memory domain.SharedCache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// fakeLister serves a fixed listing until failing is set.
type fakeLister struct {
	source  domain.Source
	markets []domain.Market
	failing atomic.Bool
	calls   atomic.Int32
}

func (f *fakeLister) Source() domain.Source { return f.source }

func (f *fakeLister) FetchMarkets(_ context.Context, minVolume float64) ([]domain.Market, error) {
	f.calls.Add(1)
	if f.failing.Load() {
		return nil, domain.ErrUpstreamUnavailable
	}
	out := make([]domain.Market, 0, len(f.markets))
	for _, m := range f.markets {
		if m.Volume >= minVolume {
			out = append(out, m)
		}
	}
	return out, nil
}

func mkMarket(src domain.Source, id, question string, volume float64, outcomes ...domain.Outcome) domain.Market {
	if len(outcomes) == 0 {
		outcomes = []domain.Outcome{{Name: "Yes", Price: domain.Price(0.5)}, {Name: "No", Price: domain.Price(0.5)}}
	}
	m := domain.Market{ID: id, Question: question, Volume: volume, Outcomes: outcomes, Active: true, Source: src}
	m.SearchText, m.RawSearchText = listing.BuildSearchText(m)
	return m
}

func yesNo(p float64) []domain.Outcome {
	return []domain.Outcome{{Name: "Yes", Price: domain.Price(p)}, {Name: "No", Price: domain.Price(1 - p)}}
}

type fixture struct {
	poly    *fakeLister
	kalshi  *fakeLister
	shared  *memCache
	cache   *resilience.Cache
	markets *MarketService
}

func newFixture(t *testing.T, shared domain.SharedCache) *fixture {
	t.Helper()
	f := &fixture{
		poly: &fakeLister{source: domain.SourcePolymarket, markets: []domain.Market{
			mkMarket(domain.SourcePolymarket, "p1", "Will the Fed cut rates in June?", 9000, yesNo(0.40)...),
			mkMarket(domain.SourcePolymarket, "p2", "Will Ukraine and Russia agree to a ceasefire?", 5000),
			mkMarket(domain.SourcePolymarket, "p3", "Texas Senate Election Winner 2026", 20000,
				domain.Outcome{Name: "Colin Allred", Price: domain.Price(0.62)},
				domain.Outcome{Name: "Ken Paxton", Price: domain.Price(0.35)},
				domain.Outcome{Name: "Other", Price: domain.Price(0.03)}),
			mkMarket(domain.SourcePolymarket, "p4", "Tiny market", 1),
		}},
		kalshi: &fakeLister{source: domain.SourceKalshi, markets: []domain.Market{
			mkMarket(domain.SourceKalshi, "k1", "Will the Fed cut rates in July?", 7000, yesNo(0.50)...),
			mkMarket(domain.SourceKalshi, "k2", "Will the United Kingdom hold a general election?", 3000),
		}},
	}
	f.cache = resilience.New(shared, 0, discardLogger())
	f.markets = NewMarketService(MarketConfig{
		Sources: []SourceConfig{
			{Lister: f.poly, MinVolume: 10},
			{Lister: f.kalshi},
		},
		TTL: time.Minute,
	}, f.cache, nil, discardLogger())
	t.Cleanup(f.cache.Wait)
	return f
}

func ids(markets []domain.Market) []string {
	out := make([]string, len(markets))
	for i, m := range markets {
		out[i] = m.ID
	}
	return out
}

func TestGetTopMarkets(t *testing.T) {
	f := newFixture(t, nil)
	got := ids(f.markets.GetTopMarkets(context.Background(), 3))
	want := []string{"p3", "p1", "k1"}
	if len(got) != len(want) {
		t.Fatalf("GetTopMarkets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetTopMarkets = %v, want %v", got, want)
		}
	}
}

func TestListingsIsolateFailingSource(t *testing.T) {
	f := newFixture(t, nil)
	f.kalshi.failing.Store(true)

	got := f.markets.GetTopMarkets(context.Background(), 0)
	if len(got) != 3 {
		t.Fatalf("GetTopMarkets = %v, want the three polymarket markets", ids(got))
	}
	for _, m := range got {
		if m.Source != domain.SourcePolymarket {
			t.Errorf("unexpected market from %s", m.Source)
		}
	}
}

func TestListingServesStaleSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if n := len(f.markets.GetTopMarkets(ctx, 0)); n != 5 {
		t.Fatalf("warm-up returned %d markets, want 5", n)
	}

	f.poly.failing.Store(true)
	f.kalshi.failing.Store(true)
	if n := len(f.markets.GetTopMarkets(ctx, 0)); n != 5 {
		t.Errorf("with both sources down got %d markets, want the 5 from the snapshot", n)
	}
}

func TestListingUsesSharedTier(t *testing.T) {
	shared := newMemCache()
	f := newFixture(t, shared)
	ctx := context.Background()

	f.markets.GetTopMarkets(ctx, 0)
	f.cache.Wait()
	f.markets.GetTopMarkets(ctx, 0)

	if n := f.poly.calls.Load(); n != 1 {
		t.Errorf("polymarket fetched %d times, want 1", n)
	}
}

func TestGetMarketsByTopicAndCountry(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	fed := f.markets.GetMarketsByTopic(ctx, topic.Probe{Required: []string{"fed"}, Boost: []string{"june"}}, 0)
	if got := ids(fed); len(got) != 2 || got[0] != "p1" {
		t.Errorf("topic fed = %v, want [p1 k1]", got)
	}
	if got := f.markets.GetMarketsByTopic(ctx, topic.Probe{}, 0); len(got) != 0 {
		t.Errorf("empty probe returned %v", ids(got))
	}

	uk := f.markets.GetMarketsByCountry(ctx, "United Kingdom", 0)
	if got := ids(uk); len(got) != 1 || got[0] != "k2" {
		t.Errorf("country UK = %v, want [k2]", got)
	}
	if got := f.markets.GetMarketsByCountry(ctx, "Atlantis", 0); got == nil || len(got) != 0 {
		t.Errorf("unknown country = %v, want empty non-nil slice", got)
	}
}

func TestGetArbitrageOpportunities(t *testing.T) {
	f := newFixture(t, nil)
	arb := NewArbService(f.markets, arbitrage.NewMatcher(arbitrage.MatcherConfig{
		Probes: []topic.Probe{{Name: "fed", Required: []string{"fed"}}},
		Logger: discardLogger(),
	}), domain.SourcePolymarket, domain.SourceKalshi, nil, discardLogger())

	opps := arb.GetArbitrageOpportunities(context.Background())
	if len(opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(opps))
	}
	if opps[0].Direction != domain.SourceKalshi || opps[0].MarketA.ID != "p1" || opps[0].MarketB.ID != "k1" {
		t.Errorf("opportunity = %+v", opps[0])
	}

	f.kalshi.failing.Store(true)
	f.cache = resilience.New(nil, 0, discardLogger())
	fresh := NewMarketService(MarketConfig{Sources: []SourceConfig{{Lister: f.poly}, {Lister: f.kalshi}}}, f.cache, nil, discardLogger())
	arb.markets = fresh
	if got := arb.GetArbitrageOpportunities(context.Background()); got == nil || len(got) != 0 {
		t.Errorf("with kalshi down and no snapshot got %v, want empty", got)
	}
}

func newElectionService(t *testing.T, f *fixture) *ElectionService {
	t.Helper()
	catalog, err := election.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	engine := election.NewEngine(catalog, election.EngineConfig{Logger: discardLogger()})
	return NewElectionService(engine, f.markets, f.cache, time.Minute, nil, discardLogger())
}

func TestElectionLiveAndStateData(t *testing.T) {
	f := newFixture(t, nil)
	svc := newElectionService(t, f)
	ctx := context.Background()

	live := svc.GetElectionLiveData(ctx)
	tx, ok := live.Ratings["TX-senate"]
	if !ok || tx.Rating != domain.RatingLeanD {
		t.Fatalf("TX-senate = %+v, %v", tx, ok)
	}

	state, err := svc.GetElectionStateData(ctx, "texas")
	if err != nil {
		t.Fatalf("GetElectionStateData: %v", err)
	}
	for k, r := range state.Ratings {
		if r.Race.State != "TX" {
			t.Errorf("rating %s leaked into TX view", k)
		}
	}
	if _, ok := state.Ratings["TX-senate"]; !ok {
		t.Error("TX view missing TX-senate")
	}

	if _, err := svc.GetElectionStateData(ctx, "ZZ"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown state err = %v, want ErrNotFound", err)
	}
}

func TestRefreshElectionSurvivesOutage(t *testing.T) {
	shared := newMemCache()
	f := newFixture(t, shared)
	svc := newElectionService(t, f)
	ctx := context.Background()

	if _, err := svc.RefreshElection(ctx); err != nil {
		t.Fatalf("RefreshElection: %v", err)
	}
	f.cache.Wait()
	if _, err := shared.Get(ctx, SnapshotKey); err != nil {
		t.Fatalf("snapshot not written to shared tier: %v", err)
	}

	f.poly.failing.Store(true)
	f.kalshi.failing.Store(true)
	// drop the listing entries so the refresh has to go upstream
	_ = f.cache.Del(ctx, listingKey(domain.SourcePolymarket))
	_ = f.cache.Del(ctx, listingKey(domain.SourceKalshi))

	if _, err := svc.RefreshElection(ctx); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("refresh with no data err = %v, want ErrUpstreamUnavailable", err)
	}
	if live := svc.GetElectionLiveData(ctx); live.Empty() {
		t.Error("live data should still be served from the cached snapshot")
	}
}

func TestElectionLiveDataEmptyWhenNothingFetched(t *testing.T) {
	f := newFixture(t, nil)
	f.poly.failing.Store(true)
	f.kalshi.failing.Store(true)
	svc := newElectionService(t, f)

	live := svc.GetElectionLiveData(context.Background())
	if !live.Empty() || live.Ratings == nil || live.Primaries == nil {
		t.Errorf("live = %+v, want empty non-nil maps", live)
	}
}
