// Package metrics provides Prometheus metrics for upstream fetches, the
// resilience cache and election refreshes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	UpstreamFetches *prometheus.CounterVec
	FetchDuration   *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	StaleServed     *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	RefreshPartial  prometheus.Counter
	MatchedRaces    prometheus.Gauge
	ArbPairs        prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		UpstreamFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_upstream_fetches_total",
				Help: "Exchange listing fetches by source and result",
			},
			[]string{"source", "result"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketlens_upstream_fetch_duration_seconds",
				Help:    "Duration of exchange listing fetches",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"source"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_cache_lookups_total",
				Help: "Shared cache lookups by result (hit, miss, error)",
			},
			[]string{"result"},
		),
		StaleServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_stale_fallback_total",
				Help: "Fallback outcomes after a failed fetch (served, expired, none)",
			},
			[]string{"outcome"},
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "marketlens_election_refresh_duration_seconds",
				Help:    "Duration of election refresh passes",
				Buckets: prometheus.LinearBuckets(1, 3, 10),
			},
		),
		RefreshPartial: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "marketlens_election_refresh_partial_total",
				Help: "Election refreshes cut short by the soft timeout",
			},
		),
		MatchedRaces: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketlens_election_matched_races",
				Help: "Races with a derived rating in the latest snapshot",
			},
		),
		ArbPairs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketlens_arbitrage_pairs",
				Help: "Cross-source pairs in the latest arbitrage scan",
			},
		),
	}

	registry.MustRegister(
		m.UpstreamFetches,
		m.FetchDuration,
		m.CacheLookups,
		m.StaleServed,
		m.RefreshDuration,
		m.RefreshPartial,
		m.MatchedRaces,
		m.ArbPairs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// --- Helper methods for recording metrics ---

// RecordFetch records one upstream fetch.
func (m *Metrics) RecordFetch(source string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.UpstreamFetches.WithLabelValues(source, result).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordCacheLookup records a shared cache lookup result.
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordFallback records what the stale fallback produced.
func (m *Metrics) RecordFallback(outcome string) {
	if m == nil {
		return
	}
	m.StaleServed.WithLabelValues(outcome).Inc()
}

// RecordRefresh records an election refresh pass.
func (m *Metrics) RecordRefresh(d time.Duration, partial bool, matched int) {
	if m == nil {
		return
	}
	m.RefreshDuration.Observe(d.Seconds())
	if partial {
		m.RefreshPartial.Inc()
	}
	m.MatchedRaces.Set(float64(matched))
}

// RecordArbitrage records the size of an arbitrage scan.
func (m *Metrics) RecordArbitrage(pairs int) {
	if m == nil {
		return
	}
	m.ArbPairs.Set(float64(pairs))
}
