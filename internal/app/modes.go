package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketlens/internal/pipeline"
	"github.com/alanyoungcy/marketlens/internal/server"
	"github.com/alanyoungcy/marketlens/internal/server/handler"
)

const shutdownTimeout = 5 * time.Second

// ServerMode serves the HTTP API only. Listings and the election snapshot are
// computed on demand and kept fresh by request traffic.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// RefreshMode runs the background loops without an HTTP surface. Several
// replicas can share one Redis; the refresh lock keeps the election
// recomputation to one of them at a time.
func (a *App) RefreshMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting refresh mode")
	return a.newOrchestrator(deps).Run(ctx)
}

// FullMode runs the background loops and the HTTP API in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	orch := a.newOrchestrator(deps)
	g.Go(func() error {
		return orch.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

func (a *App) newOrchestrator(deps *Dependencies) *pipeline.Orchestrator {
	var scraper *pipeline.MarketScraper
	if a.cfg.Pipeline.Enabled {
		scraper = pipeline.NewMarketScraper(deps.Markets, deps.Arb, a.logger)
	}
	refresher := pipeline.NewRefresher(deps.Elections, deps.Locks, deps.Bus,
		a.cfg.Redis.LockTTL.Duration, a.logger)
	return pipeline.NewOrchestrator(scraper, refresher,
		a.cfg.Pipeline.ScrapeInterval.Duration,
		a.cfg.Election.RefreshInterval.Duration,
		a.logger,
	)
}

// startHTTPServer adds an HTTP server goroutine to the given errgroup. The
// server is shut down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	var redis handler.Pinger
	if deps.Redis != nil {
		redis = deps.Redis
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		RateLimit:   a.cfg.Server.RateLimit,
		RateBurst:   a.cfg.Server.RateBurst,
	}, server.Handlers{
		Health:    handler.NewHealthHandler(redis, a.logger),
		Status:    handler.NewStatusHandler(a.cfg.Mode, deps.Catalog.Cycle(), deps.Markets.SourceNames()),
		Markets:   handler.NewMarketHandler(deps.Markets, a.logger),
		Arb:       handler.NewArbHandler(deps.Arb, a.logger),
		Elections: handler.NewElectionHandler(deps.Elections, a.logger),
		Metrics:   deps.Metrics.Handler(),
	}, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			a.logger.Warn("HTTP server shutdown incomplete", slog.String("error", err.Error()))
			return err
		}
		return nil
	})
}
