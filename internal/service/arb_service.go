package service

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/marketlens/internal/arbitrage"
	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/metrics"
)

// ArbService pairs same-topic markets across two exchanges and reports
// where their prices diverge.
type ArbService struct {
	markets *MarketService
	matcher *arbitrage.Matcher
	sourceA domain.Source
	sourceB domain.Source
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewArbService creates an ArbService comparing sourceA against sourceB.
func NewArbService(
	markets *MarketService,
	matcher *arbitrage.Matcher,
	sourceA, sourceB domain.Source,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ArbService {
	return &ArbService{
		markets: markets,
		matcher: matcher,
		sourceA: sourceA,
		sourceB: sourceB,
		metrics: m,
		logger:  logger.With(slog.String("component", "arb_service")),
	}
}

// GetArbitrageOpportunities returns divergent cross-exchange pairs ordered
// by divergence. An exchange with no data yields no pairs.
func (s *ArbService) GetArbitrageOpportunities(ctx context.Context) []domain.ArbOpportunity {
	listings := s.markets.Listings(ctx)
	a, b := listings[s.sourceA], listings[s.sourceB]
	if len(a) == 0 || len(b) == 0 {
		s.logger.InfoContext(ctx, "arb_service: listing unavailable, skipping scan",
			slog.Int(string(s.sourceA), len(a)),
			slog.Int(string(s.sourceB), len(b)),
		)
		s.metrics.RecordArbitrage(0)
		return []domain.ArbOpportunity{}
	}
	opps := s.matcher.Scan(a, b)
	s.metrics.RecordArbitrage(len(opps))
	return opps
}
