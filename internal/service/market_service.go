package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/geo"
	"github.com/alanyoungcy/marketlens/internal/listing"
	"github.com/alanyoungcy/marketlens/internal/metrics"
	"github.com/alanyoungcy/marketlens/internal/resilience"
	"github.com/alanyoungcy/marketlens/internal/topic"
)

// DefaultLimit caps listing responses when the caller passes no limit.
const DefaultLimit = 50

const defaultFetchTimeout = 20 * time.Second

// Lister fetches the normalized listing of one exchange.
type Lister interface {
	Source() domain.Source
	FetchMarkets(ctx context.Context, minVolume float64) ([]domain.Market, error)
}

// SourceConfig pairs an exchange adapter with its volume floor.
type SourceConfig struct {
	Lister    Lister
	MinVolume float64
}

// MarketConfig configures a MarketService.
type MarketConfig struct {
	Sources      []SourceConfig
	TTL          time.Duration
	FetchTimeout time.Duration
}

// MarketService serves cross-exchange listings. Every exchange listing goes
// through the resilience cache, so callers get stale data or an empty
// slice when an exchange is down, never an error.
type MarketService struct {
	sources      []SourceConfig
	cache        *resilience.Cache
	ttl          time.Duration
	fetchTimeout time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewMarketService creates a MarketService with all required dependencies.
func NewMarketService(
	cfg MarketConfig,
	cache *resilience.Cache,
	m *metrics.Metrics,
	logger *slog.Logger,
) *MarketService {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &MarketService{
		sources:      cfg.Sources,
		cache:        cache,
		ttl:          cfg.TTL,
		fetchTimeout: cfg.FetchTimeout,
		metrics:      m,
		logger:       logger.With(slog.String("component", "market_service")),
	}
}

// SourceNames lists the configured exchanges in order.
func (s *MarketService) SourceNames() []string {
	out := make([]string, len(s.sources))
	for i, sc := range s.sources {
		out[i] = string(sc.Lister.Source())
	}
	return out
}

func listingKey(src domain.Source) string {
	return "markets:" + string(src)
}

// Listing returns one exchange's markets through the resilience cache.
func (s *MarketService) Listing(ctx context.Context, sc SourceConfig) []domain.Market {
	src := sc.Lister.Source()
	return resilience.Fetch(ctx, s.cache, listingKey(src), s.ttl, func(ctx context.Context) ([]domain.Market, error) {
		ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
		start := time.Now()
		markets, err := sc.Lister.FetchMarkets(ctx, sc.MinVolume)
		s.metrics.RecordFetch(string(src), err, time.Since(start))
		if err != nil {
			s.logger.WarnContext(ctx, "market_service: listing fetch failed",
				slog.String("source", string(src)),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		return markets, nil
	})
}

// Listings fetches every exchange concurrently. Each branch is independent:
// a failed exchange contributes its fallback, possibly nothing, and never
// affects the others.
func (s *MarketService) Listings(ctx context.Context) map[domain.Source][]domain.Market {
	results := make([][]domain.Market, len(s.sources))
	var wg sync.WaitGroup
	for i, sc := range s.sources {
		wg.Add(1)
		go func(i int, sc SourceConfig) {
			defer wg.Done()
			results[i] = s.Listing(ctx, sc)
		}(i, sc)
	}
	wg.Wait()

	out := make(map[domain.Source][]domain.Market, len(s.sources))
	for i, sc := range s.sources {
		out[sc.Lister.Source()] = results[i]
	}
	return out
}

// AllMarkets merges every exchange's listing, ordered by volume.
func (s *MarketService) AllMarkets(ctx context.Context) []domain.Market {
	var all []domain.Market
	for _, ms := range s.Listings(ctx) {
		all = append(all, ms...)
	}
	listing.SortByVolume(all)
	return all
}

// GetTopMarkets returns the highest-volume markets across exchanges.
func (s *MarketService) GetTopMarkets(ctx context.Context, limit int) []domain.Market {
	return capped(s.AllMarkets(ctx), limit)
}

// GetMarketsByTopic ranks every exchange's markets against p.
func (s *MarketService) GetMarketsByTopic(ctx context.Context, p topic.Probe, limit int) []domain.Market {
	return capped(topic.FilterByTopic(s.AllMarkets(ctx), p), limit)
}

// GetMarketsByCountry returns markets referring to the named country.
func (s *MarketService) GetMarketsByCountry(ctx context.Context, country string, limit int) []domain.Market {
	return capped(geo.FilterByCountry(s.AllMarkets(ctx), country), limit)
}

// Searchers exposes each exchange as a probe target for the election
// engine. Probes filter the cached listing, so overlapping probes share one
// upstream fetch per exchange.
func (s *MarketService) Searchers() []*ListingSearcher {
	out := make([]*ListingSearcher, len(s.sources))
	for i, sc := range s.sources {
		out[i] = &ListingSearcher{svc: s, source: sc}
	}
	return out
}

// ListingSearcher answers topic probes from one exchange's cached listing.
type ListingSearcher struct {
	svc    *MarketService
	source SourceConfig
}

// Source returns the exchange the searcher covers.
func (l *ListingSearcher) Source() domain.Source {
	return l.source.Lister.Source()
}

// Search returns the exchange's markets matching p in rank order.
func (l *ListingSearcher) Search(ctx context.Context, p topic.Probe) ([]domain.Market, error) {
	return topic.FilterByTopic(l.svc.Listing(ctx, l.source), p), nil
}

func capped(markets []domain.Market, limit int) []domain.Market {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if markets == nil {
		return []domain.Market{}
	}
	if len(markets) > limit {
		markets = markets[:limit]
	}
	return markets
}
