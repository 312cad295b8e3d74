package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alanyoungcy/marketlens/internal/arbitrage"
	"github.com/alanyoungcy/marketlens/internal/cache/redis"
	"github.com/alanyoungcy/marketlens/internal/config"
	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/election"
	"github.com/alanyoungcy/marketlens/internal/metrics"
	"github.com/alanyoungcy/marketlens/internal/platform/kalshi"
	"github.com/alanyoungcy/marketlens/internal/platform/polymarket"
	"github.com/alanyoungcy/marketlens/internal/resilience"
	"github.com/alanyoungcy/marketlens/internal/service"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Shared tier. All four are nil when Redis is not configured or was
	// unreachable at startup.
	Redis  *redis.Client
	Shared domain.SharedCache
	Locks  domain.LockManager
	Bus    domain.SignalBus

	Metrics *metrics.Metrics
	Cache   *resilience.Cache
	Catalog *election.Catalog

	Markets   *service.MarketService
	Arb       *service.ArbService
	Elections *service.ElectionService
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Metrics: metrics.New()}

	// --- Redis (optional unless required) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			Namespace:  cfg.Redis.Namespace,
		})
		switch {
		case err != nil && cfg.Redis.Required:
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		case err != nil:
			logger.WarnContext(ctx, "redis unreachable, running with in-process snapshots only",
				slog.String("addr", cfg.Redis.Addr),
				slog.String("error", err.Error()),
			)
		default:
			closers = append(closers, func() { _ = redisClient.Close() })
			deps.Redis = redisClient
			deps.Shared = redis.NewStore(redisClient)
			deps.Locks = redis.NewLockManager(redisClient)
			deps.Bus = redis.NewSignalBus(redisClient)
		}
	}

	deps.Cache = resilience.New(deps.Shared, cfg.Resilience.StaleAfter.Duration, logger,
		resilience.WithMetrics(deps.Metrics),
	)
	closers = append(closers, deps.Cache.Wait)

	// --- Exchange adapters ---
	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost, logger,
		polymarket.WithTimeout(cfg.Polymarket.Timeout.Duration),
		polymarket.WithRateLimit(cfg.Polymarket.RateLimit, cfg.Polymarket.Burst),
		polymarket.WithPagination(cfg.Polymarket.PageSize, cfg.Polymarket.MaxPages),
	)
	kalshiClient := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiKey, logger,
		kalshi.WithTimeout(cfg.Kalshi.Timeout.Duration),
		kalshi.WithRateLimit(cfg.Kalshi.RateLimit, cfg.Kalshi.Burst),
		kalshi.WithPagination(cfg.Kalshi.PageSize, cfg.Kalshi.MaxPages),
	)
	if cfg.Kalshi.RsaPrivateKeyPath != "" {
		pemBytes, err := os.ReadFile(cfg.Kalshi.RsaPrivateKeyPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
		}
		if err := kalshiClient.SetRSAPrivateKey(pemBytes); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
		}
	}

	// --- Election catalog ---
	catalog, err := loadCatalog(cfg.Election)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %w", err)
	}
	deps.Catalog = catalog

	// --- Services ---
	deps.Markets = service.NewMarketService(service.MarketConfig{
		Sources: []service.SourceConfig{
			{Lister: gamma, MinVolume: cfg.Polymarket.MinVolume},
			{Lister: kalshiClient, MinVolume: cfg.Kalshi.MinVolume},
		},
		TTL: cfg.Redis.MarketTTL.Duration,
	}, deps.Cache, deps.Metrics, logger)

	matcher := arbitrage.NewMatcher(arbitrage.MatcherConfig{
		MinSimilarity: cfg.Arbitrage.MinSimilarity,
		MinDivergence: cfg.Arbitrage.MinDivergence,
		TopN:          cfg.Arbitrage.TopN,
		Logger:        logger,
	})
	deps.Arb = service.NewArbService(deps.Markets, matcher,
		domain.SourcePolymarket, domain.SourceKalshi, deps.Metrics, logger)

	engine := election.NewEngine(catalog, election.EngineConfig{
		ProbeTimeout: cfg.Election.ProbeTimeout.Duration,
		SoftTimeout:  cfg.Election.SoftTimeout.Duration,
		Logger:       logger,
	})
	deps.Elections = service.NewElectionService(engine, deps.Markets, deps.Cache,
		cfg.Redis.ElectionTTL.Duration, deps.Metrics, logger)

	return deps, cleanup, nil
}

// loadCatalog reads the configured race catalog, falling back to the
// embedded one, and checks it against the configured cycle.
func loadCatalog(cfg config.ElectionConfig) (*election.Catalog, error) {
	var (
		catalog *election.Catalog
		err     error
	)
	if cfg.CatalogPath != "" {
		catalog, err = election.LoadCatalog(cfg.CatalogPath)
	} else {
		catalog, err = election.DefaultCatalog()
	}
	if err != nil {
		return nil, fmt.Errorf("election catalog: %w", err)
	}
	if cfg.Cycle != 0 && cfg.Cycle != catalog.Cycle() {
		return nil, fmt.Errorf("election catalog: cycle %d does not match configured cycle %d", catalog.Cycle(), cfg.Cycle)
	}
	return catalog, nil
}
