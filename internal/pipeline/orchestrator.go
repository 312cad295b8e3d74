package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator manages the background loops: listing cache warm-up and the
// election refresh.
type Orchestrator struct {
	marketScraper   *MarketScraper
	refresher       *Refresher
	scrapeInterval  time.Duration
	refreshInterval time.Duration
	logger          *slog.Logger
}

// NewOrchestrator creates a new Orchestrator. marketScraper may be nil when
// only the election refresh should run.
func NewOrchestrator(
	marketScraper *MarketScraper,
	refresher *Refresher,
	scrapeInterval time.Duration,
	refreshInterval time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		marketScraper:   marketScraper,
		refresher:       refresher,
		scrapeInterval:  scrapeInterval,
		refreshInterval: refreshInterval,
		logger:          logger.With(slog.String("component", "orchestrator")),
	}
}

// Run starts all loops as concurrent goroutines using an errgroup. Each
// goroutine respects ctx cancellation. If any goroutine returns a non-context
// error, the errgroup cancels the shared context and Run returns that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline orchestrator starting",
		slog.Duration("scrape_interval", o.scrapeInterval),
		slog.Duration("refresh_interval", o.refreshInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	if o.marketScraper != nil {
		g.Go(func() error {
			err := o.marketScraper.RunLoop(ctx, o.scrapeInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("market scraper: %w", err)
		})
	}

	g.Go(func() error {
		err := o.refresher.RunLoop(ctx, o.refreshInterval)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("election refresher: %w", err)
	})

	if err := g.Wait(); err != nil {
		o.logger.Error("pipeline orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline orchestrator stopped cleanly")
	return nil
}
