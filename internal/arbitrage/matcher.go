// Package arbitrage pairs same-topic markets listed on different exchanges
// and flags diverging prices.
package arbitrage

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/listing"
	"github.com/alanyoungcy/marketlens/internal/textnorm"
	"github.com/alanyoungcy/marketlens/internal/topic"
)

const (
	DefaultMinSimilarity = 0.35
	DefaultMinDivergence = 0.03
	DefaultTopN          = 10

	dedupKeyRunes = 40
	epsilon       = 1e-9
)

// Matcher finds cross-exchange pairs for a fixed list of topic probes.
type Matcher struct {
	probes        []topic.Probe
	minSimilarity float64
	minDivergence float64
	topN          int
	logger        *slog.Logger
}

// MatcherConfig configures the matcher. Zero values select the defaults.
type MatcherConfig struct {
	Probes        []topic.Probe
	MinSimilarity float64
	MinDivergence float64
	TopN          int
	Logger        *slog.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(cfg MatcherConfig) *Matcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	m := &Matcher{
		probes:        cfg.Probes,
		minSimilarity: cfg.MinSimilarity,
		minDivergence: cfg.MinDivergence,
		topN:          cfg.TopN,
		logger:        cfg.Logger.With(slog.String("component", "arb_matcher")),
	}
	if len(m.probes) == 0 {
		m.probes = DefaultProbes()
	}
	if m.minSimilarity <= 0 {
		m.minSimilarity = DefaultMinSimilarity
	}
	if m.minDivergence <= 0 {
		m.minDivergence = DefaultMinDivergence
	}
	if m.topN <= 0 {
		m.topN = DefaultTopN
	}
	return m
}

// Probes returns the configured probes.
func (m *Matcher) Probes() []topic.Probe {
	return m.probes
}

// Jaccard returns the token-set Jaccard similarity of two titles after
// normalization.
func Jaccard(a, b string) float64 {
	sa, sb := textnorm.TokenSet(a), textnorm.TokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for t := range sa {
		if _, ok := sb[t]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// Match pairs each market in a with its most similar market in b and keeps
// pairs that clear both thresholds.
func (m *Matcher) Match(a, b []domain.Market) []domain.ArbOpportunity {
	var out []domain.ArbOpportunity
	for _, ma := range a {
		pa, ok := ma.PrimaryPrice()
		if !ok {
			continue
		}
		var (
			best    domain.Market
			bestSim float64
			found   bool
		)
		for _, mb := range b {
			if mb.Source == ma.Source {
				continue
			}
			if sim := Jaccard(ma.Question, mb.Question); sim > bestSim {
				best, bestSim, found = mb, sim, true
			}
		}
		if !found || bestSim+epsilon < m.minSimilarity {
			continue
		}
		pb, ok := best.PrimaryPrice()
		if !ok {
			continue
		}
		div := math.Abs(pa - pb)
		if div+epsilon < m.minDivergence {
			continue
		}
		dir := ma.Source
		if pb > pa {
			dir = best.Source
		}
		out = append(out, domain.ArbOpportunity{
			MarketA:    ma,
			MarketB:    best,
			Similarity: bestSim,
			Divergence: div,
			Direction:  dir,
		})
	}
	return out
}

// Scan ranks both listings against every probe, matches the top markets of
// each side, and returns the distinct pairs ordered by divergence.
func (m *Matcher) Scan(a, b []domain.Market) []domain.ArbOpportunity {
	seen := make(map[string]bool)
	out := make([]domain.ArbOpportunity, 0)
	for _, p := range m.probes {
		topA := topic.Top(a, p, m.topN)
		topB := topic.Top(b, p, m.topN)
		if len(topA) == 0 || len(topB) == 0 {
			continue
		}
		for _, opp := range m.Match(topA, topB) {
			k := dedupKey(opp)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, opp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Divergence > out[j].Divergence
	})
	m.logger.Debug("arbitrage scan complete",
		slog.Int("probes", len(m.probes)),
		slog.Int("pairs", len(out)),
	)
	return out
}

func dedupKey(o domain.ArbOpportunity) string {
	return truncate(listing.TitleText(o.MarketA), dedupKeyRunes) + "|" + truncate(listing.TitleText(o.MarketB), dedupKeyRunes)
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
