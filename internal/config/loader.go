package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETLENS_* environment variable overrides, and
// returns the final Config. An empty path skips the file and uses defaults.
// The returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETLENS_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// Polymarket
	setStr(&cfg.Polymarket.GammaHost, "MARKETLENS_POLYMARKET_GAMMA_HOST")
	applySourceOverrides(&cfg.Polymarket.SourceConfig, "MARKETLENS_POLYMARKET_")

	// Kalshi
	setStr(&cfg.Kalshi.BaseURL, "MARKETLENS_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.ApiKey, "MARKETLENS_KALSHI_API_KEY")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "MARKETLENS_KALSHI_RSA_PRIVATE_KEY_PATH")
	applySourceOverrides(&cfg.Kalshi.SourceConfig, "MARKETLENS_KALSHI_")

	// Redis
	setStr(&cfg.Redis.Addr, "MARKETLENS_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETLENS_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETLENS_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETLENS_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MARKETLENS_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MARKETLENS_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.Namespace, "MARKETLENS_REDIS_NAMESPACE")
	setBool(&cfg.Redis.Required, "MARKETLENS_REDIS_REQUIRED")
	setDuration(&cfg.Redis.MarketTTL, "MARKETLENS_REDIS_MARKET_TTL")
	setDuration(&cfg.Redis.ElectionTTL, "MARKETLENS_REDIS_ELECTION_TTL")
	setDuration(&cfg.Redis.LockTTL, "MARKETLENS_REDIS_LOCK_TTL")

	// Resilience
	setDuration(&cfg.Resilience.StaleAfter, "MARKETLENS_RESILIENCE_STALE_AFTER")

	// Election
	setInt(&cfg.Election.Cycle, "MARKETLENS_ELECTION_CYCLE")
	setStr(&cfg.Election.CatalogPath, "MARKETLENS_ELECTION_CATALOG_PATH")
	setDuration(&cfg.Election.RefreshInterval, "MARKETLENS_ELECTION_REFRESH_INTERVAL")
	setDuration(&cfg.Election.SoftTimeout, "MARKETLENS_ELECTION_SOFT_TIMEOUT")
	setDuration(&cfg.Election.ProbeTimeout, "MARKETLENS_ELECTION_PROBE_TIMEOUT")

	// Arbitrage
	setFloat64(&cfg.Arbitrage.MinSimilarity, "MARKETLENS_ARBITRAGE_MIN_SIMILARITY")
	setFloat64(&cfg.Arbitrage.MinDivergence, "MARKETLENS_ARBITRAGE_MIN_DIVERGENCE")
	setInt(&cfg.Arbitrage.TopN, "MARKETLENS_ARBITRAGE_TOP_N")

	// Pipeline
	setBool(&cfg.Pipeline.Enabled, "MARKETLENS_PIPELINE_ENABLED")
	setDuration(&cfg.Pipeline.ScrapeInterval, "MARKETLENS_PIPELINE_SCRAPE_INTERVAL")

	// Server
	setBool(&cfg.Server.Enabled, "MARKETLENS_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "MARKETLENS_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETLENS_SERVER_CORS_ORIGINS")
	setFloat64(&cfg.Server.RateLimit, "MARKETLENS_SERVER_RATE_LIMIT")
	setInt(&cfg.Server.RateBurst, "MARKETLENS_SERVER_RATE_BURST")

	// Top-level
	setStr(&cfg.Mode, "MARKETLENS_MODE")
	setStr(&cfg.LogLevel, "MARKETLENS_LOG_LEVEL")
}

func applySourceOverrides(s *SourceConfig, prefix string) {
	setInt(&s.PageSize, prefix+"PAGE_SIZE")
	setInt(&s.MaxPages, prefix+"MAX_PAGES")
	setFloat64(&s.MinVolume, prefix+"MIN_VOLUME")
	setDuration(&s.Timeout, prefix+"TIMEOUT")
	setFloat64(&s.RateLimit, prefix+"RATE_LIMIT")
	setInt(&s.Burst, prefix+"BURST")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
