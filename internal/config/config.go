// Package config defines the top-level configuration for marketlens and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MARKETLENS_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Redis      RedisConfig      `toml:"redis"`
	Resilience ResilienceConfig `toml:"resilience"`
	Election   ElectionConfig   `toml:"election"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Server     ServerConfig     `toml:"server"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// SourceConfig holds the listing knobs shared by both exchange adapters.
type SourceConfig struct {
	PageSize  int      `toml:"page_size"`
	MaxPages  int      `toml:"max_pages"`
	MinVolume float64  `toml:"min_volume"`
	Timeout   duration `toml:"timeout"`
	RateLimit float64  `toml:"rate_limit"`
	Burst     int      `toml:"burst"`
}

// PolymarketConfig holds Polymarket Gamma API settings.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
	SourceConfig
}

// KalshiConfig holds Kalshi API settings. Listing endpoints are public; the
// key pair is only sent when configured.
type KalshiConfig struct {
	BaseURL           string `toml:"base_url"`
	ApiKey            string `toml:"api_key"`
	RsaPrivateKeyPath string `toml:"rsa_private_key_path"`
	SourceConfig
}

// RedisConfig holds Redis connection parameters. An empty addr runs with the
// in-process snapshot tier only.
type RedisConfig struct {
	Addr        string   `toml:"addr"`
	Password    string   `toml:"password"`
	DB          int      `toml:"db"`
	PoolSize    int      `toml:"pool_size"`
	MaxRetries  int      `toml:"max_retries"`
	TLSEnabled  bool     `toml:"tls_enabled"`
	Namespace   string   `toml:"namespace"`
	Required    bool     `toml:"required"`
	MarketTTL   duration `toml:"market_ttl"`
	ElectionTTL duration `toml:"election_ttl"`
	LockTTL     duration `toml:"lock_ttl"`
}

// ResilienceConfig bounds how old a fallback snapshot may be.
type ResilienceConfig struct {
	StaleAfter duration `toml:"stale_after"`
}

// ElectionConfig controls the election engine and its refresh loop.
type ElectionConfig struct {
	Cycle           int      `toml:"cycle"`
	CatalogPath     string   `toml:"catalog_path"`
	RefreshInterval duration `toml:"refresh_interval"`
	SoftTimeout     duration `toml:"soft_timeout"`
	ProbeTimeout    duration `toml:"probe_timeout"`
}

// ArbitrageConfig controls the cross-source matcher.
type ArbitrageConfig struct {
	MinSimilarity float64 `toml:"min_similarity"`
	MinDivergence float64 `toml:"min_divergence"`
	TopN          int     `toml:"top_n"`
}

// PipelineConfig controls the background listing warm-up loop.
type PipelineConfig struct {
	Enabled        bool     `toml:"enabled"`
	ScrapeInterval duration `toml:"scrape_interval"`
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig controls the HTTP API. A zero rate_limit disables per-client
// limiting.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	RateLimit   float64  `toml:"rate_limit"`
	RateBurst   int      `toml:"rate_burst"`
}

func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
			SourceConfig: SourceConfig{
				PageSize:  100,
				MaxPages:  5,
				MinVolume: 1000,
				Timeout:   duration{20 * time.Second},
				RateLimit: 10,
				Burst:     5,
			},
		},
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
			SourceConfig: SourceConfig{
				PageSize:  200,
				MaxPages:  5,
				MinVolume: 0,
				Timeout:   duration{20 * time.Second},
				RateLimit: 10,
				Burst:     5,
			},
		},
		Redis: RedisConfig{
			Addr:        "",
			DB:          0,
			PoolSize:    20,
			MaxRetries:  3,
			TLSEnabled:  false,
			Namespace:   "marketlens",
			MarketTTL:   duration{5 * time.Minute},
			ElectionTTL: duration{10 * time.Minute},
			LockTTL:     duration{2 * time.Minute},
		},
		Resilience: ResilienceConfig{
			StaleAfter: duration{30 * time.Minute},
		},
		Election: ElectionConfig{
			RefreshInterval: duration{10 * time.Minute},
			SoftTimeout:     duration{45 * time.Second},
			ProbeTimeout:    duration{15 * time.Second},
		},
		Arbitrage: ArbitrageConfig{
			MinSimilarity: 0.35,
			MinDivergence: 0.03,
			TopN:          10,
		},
		Pipeline: PipelineConfig{
			Enabled:        true,
			ScrapeInterval: duration{5 * time.Minute},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   20,
			RateBurst:   40,
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"server":  true,
	"refresh": true,
	"full":    true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, refresh, full)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	errs = c.Polymarket.SourceConfig.validate("polymarket", errs)

	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	if c.Kalshi.RsaPrivateKeyPath != "" && c.Kalshi.ApiKey == "" {
		errs = append(errs, "kalshi: api_key is required when rsa_private_key_path is set")
	}
	errs = c.Kalshi.SourceConfig.validate("kalshi", errs)

	if c.Redis.Required && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must be set when required = true")
	}
	if c.Redis.Addr != "" && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}
	if c.Redis.MarketTTL.Duration <= 0 || c.Redis.ElectionTTL.Duration <= 0 {
		errs = append(errs, "redis: market_ttl and election_ttl must be > 0")
	}

	if c.Resilience.StaleAfter.Duration <= 0 {
		errs = append(errs, "resilience: stale_after must be > 0")
	}

	if c.Election.Cycle != 0 && (c.Election.Cycle < 2000 || c.Election.Cycle > 2099) {
		errs = append(errs, fmt.Sprintf("election: cycle %d out of range", c.Election.Cycle))
	}
	if c.Election.RefreshInterval.Duration <= 0 {
		errs = append(errs, "election: refresh_interval must be > 0")
	}
	if c.Election.ProbeTimeout.Duration <= 0 || c.Election.SoftTimeout.Duration <= 0 {
		errs = append(errs, "election: probe_timeout and soft_timeout must be > 0")
	}
	if c.Election.ProbeTimeout.Duration > c.Election.SoftTimeout.Duration {
		errs = append(errs, "election: probe_timeout must not exceed soft_timeout")
	}

	if c.Arbitrage.MinSimilarity < 0 || c.Arbitrage.MinSimilarity > 1 {
		errs = append(errs, "arbitrage: min_similarity must be within [0, 1]")
	}
	if c.Arbitrage.MinDivergence < 0 || c.Arbitrage.MinDivergence > 1 {
		errs = append(errs, "arbitrage: min_divergence must be within [0, 1]")
	}

	if c.Pipeline.Enabled && c.Pipeline.ScrapeInterval.Duration <= 0 {
		errs = append(errs, "pipeline: scrape_interval must be > 0 when enabled")
	}

	if mode == "server" && !c.Server.Enabled {
		errs = append(errs, "server: enabled must be true in server mode")
	}
	if mode == "server" || mode == "full" {
		if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 || (c.Server.RateLimit > 0 && c.Server.RateBurst < 1) {
			errs = append(errs, "server: rate_limit must be >= 0 with rate_burst >= 1 when set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (s SourceConfig) validate(section string, errs []string) []string {
	if s.PageSize < 1 {
		errs = append(errs, section+": page_size must be >= 1")
	}
	if s.MaxPages < 1 {
		errs = append(errs, section+": max_pages must be >= 1")
	}
	if s.MinVolume < 0 {
		errs = append(errs, section+": min_volume must be >= 0")
	}
	if s.Timeout.Duration <= 0 {
		errs = append(errs, section+": timeout must be > 0")
	}
	if s.RateLimit <= 0 || s.Burst < 1 {
		errs = append(errs, section+": rate_limit must be > 0 and burst >= 1")
	}
	return errs
}
