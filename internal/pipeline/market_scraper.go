package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

// ListingSource refreshes every exchange listing through the cache.
type ListingSource interface {
	Listings(ctx context.Context) map[domain.Source][]domain.Market
}

// ArbScanner recomputes cross-exchange opportunities.
type ArbScanner interface {
	GetArbitrageOpportunities(ctx context.Context) []domain.ArbOpportunity
}

// MarketScraper keeps the listing cache warm so request paths rarely wait on
// an exchange, and refreshes the arbitrage view from the same listings.
type MarketScraper struct {
	listings ListingSource
	arb      ArbScanner
	logger   *slog.Logger
}

// NewMarketScraper creates a new MarketScraper. arb may be nil.
func NewMarketScraper(listings ListingSource, arb ArbScanner, logger *slog.Logger) *MarketScraper {
	return &MarketScraper{
		listings: listings,
		arb:      arb,
		logger:   logger.With(slog.String("component", "market_scraper")),
	}
}

// Run executes a single scrape pass.
func (s *MarketScraper) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("market scraper context cancelled: %w", err)
	}

	total := 0
	for src, markets := range s.listings.Listings(ctx) {
		total += len(markets)
		s.logger.Info("listing refreshed",
			slog.String("source", string(src)),
			slog.Int("markets", len(markets)),
		)
	}

	pairs := 0
	if s.arb != nil {
		pairs = len(s.arb.GetArbitrageOpportunities(ctx))
	}
	s.logger.Info("market scrape complete",
		slog.Int("total_markets", total),
		slog.Int("arb_pairs", pairs),
	)
	return nil
}

// RunLoop runs the market scraper on a repeating interval until the context is
// cancelled.
func (s *MarketScraper) RunLoop(ctx context.Context, interval time.Duration) error {
	// Run immediately on start.
	if err := s.Run(ctx); err != nil {
		s.logger.Error("market scrape failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("market scraper loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				s.logger.Error("market scrape failed", slog.String("error", err.Error()))
			}
		}
	}
}
