package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/election"
	"github.com/alanyoungcy/marketlens/internal/metrics"
	"github.com/alanyoungcy/marketlens/internal/resilience"
)

// SnapshotKey is the cache key of the latest election snapshot.
const SnapshotKey = "election:snapshot"

// ElectionService derives race ratings and primaries from the exchange
// listings and keeps the latest snapshot in the resilience cache.
type ElectionService struct {
	engine  *election.Engine
	markets *MarketService
	cache   *resilience.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewElectionService creates an ElectionService with all required
// dependencies.
func NewElectionService(
	engine *election.Engine,
	markets *MarketService,
	cache *resilience.Cache,
	ttl time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ElectionService {
	return &ElectionService{
		engine:  engine,
		markets: markets,
		cache:   cache,
		ttl:     ttl,
		metrics: m,
		logger:  logger.With(slog.String("component", "election_service")),
	}
}

func (s *ElectionService) compute(ctx context.Context) (domain.ElectionSnapshot, error) {
	searchers := s.markets.Searchers()
	targets := make([]election.Searcher, len(searchers))
	for i, ls := range searchers {
		targets[i] = ls
	}

	start := time.Now()
	snap := s.engine.Refresh(ctx, targets...)
	s.metrics.RecordRefresh(time.Since(start), snap.Partial, len(snap.Ratings))
	if snap.Empty() {
		return snap, fmt.Errorf("election_service: refresh matched no races: %w", domain.ErrUpstreamUnavailable)
	}
	return snap, nil
}

// RefreshElection recomputes the snapshot and replaces the cached one. An
// empty result leaves the previous snapshot in place.
func (s *ElectionService) RefreshElection(ctx context.Context) (domain.ElectionSnapshot, error) {
	snap, err := s.compute(ctx)
	if err != nil {
		return snap, err
	}
	resilience.Store(s.cache, SnapshotKey, snap, s.ttl)
	s.logger.InfoContext(ctx, "election_service: snapshot refreshed",
		slog.Int("ratings", len(snap.Ratings)),
		slog.Int("primaries", len(snap.Primaries)),
		slog.Bool("partial", snap.Partial),
	)
	return snap, nil
}

// GetElectionLiveData returns the cached snapshot, computing one on a miss.
// When computing fails a recent snapshot is served instead; with none the
// result is empty.
func (s *ElectionService) GetElectionLiveData(ctx context.Context) domain.ElectionSnapshot {
	snap := resilience.Fetch(ctx, s.cache, SnapshotKey, s.ttl, s.compute)
	if snap.Ratings == nil {
		snap.Ratings = map[string]domain.RaceRating{}
	}
	if snap.Primaries == nil {
		snap.Primaries = map[string]domain.PrimaryResult{}
	}
	return snap
}

// GetElectionStateData narrows the live snapshot to one state, given by
// code or name. Unknown states return domain.ErrNotFound.
func (s *ElectionService) GetElectionStateData(ctx context.Context, state string) (domain.ElectionSnapshot, error) {
	st, ok := s.engine.Catalog().ResolveState(state)
	if !ok {
		return domain.ElectionSnapshot{}, fmt.Errorf("election_service: state %q: %w", state, domain.ErrNotFound)
	}
	all := s.GetElectionLiveData(ctx)
	out := domain.ElectionSnapshot{
		Ratings:   make(map[string]domain.RaceRating),
		Primaries: make(map[string]domain.PrimaryResult),
		UpdatedAt: all.UpdatedAt,
		Partial:   all.Partial,
	}
	for k, r := range all.Ratings {
		if r.Race.State == st.Code {
			out.Ratings[k] = r
		}
	}
	for k, p := range all.Primaries {
		if p.Race.State == st.Code {
			out.Primaries[k] = p
		}
	}
	return out, nil
}
