package arbitrage

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/listing"
)

func newMatcher() *Matcher {
	return NewMatcher(MatcherConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

func market(src domain.Source, id, question string, yes float64) domain.Market {
	m := domain.Market{
		ID:       id,
		Source:   src,
		Question: question,
		Volume:   1000,
		Active:   true,
		Outcomes: []domain.Outcome{
			{Name: "Yes", Price: domain.Price(yes)},
			{Name: "No", Price: domain.Price(1 - yes)},
		},
	}
	m.SearchText, m.RawSearchText = listing.BuildSearchText(m)
	return m
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"fed cuts rates june", "fed cuts rates july", 3.0 / 5.0},
		{"Bitcoin above 100k", "bitcoin ABOVE 100k!", 1},
		{"alpha beta", "gamma delta", 0},
		{"", "anything", 0},
	}
	for _, tt := range tests {
		if got := Jaccard(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMatchDirectionAndThresholds(t *testing.T) {
	// {fed, cut, june} and {fed, cut, july} share two of four tokens.
	a := market(domain.SourcePolymarket, "pa", "fed cut june", 0.40)
	b := market(domain.SourceKalshi, "kb", "fed cut july", 0.50)
	if sim := Jaccard(a.Question, b.Question); math.Abs(sim-0.5) > 1e-9 {
		t.Fatalf("fixture similarity = %v, want 0.5", sim)
	}

	opps := newMatcher().Match([]domain.Market{a}, []domain.Market{b})
	if len(opps) != 1 {
		t.Fatalf("Expected 1 opportunity, got %d", len(opps))
	}
	o := opps[0]
	if math.Abs(o.Divergence-0.10) > 1e-9 {
		t.Errorf("Divergence = %v, want 0.10", o.Divergence)
	}
	if o.Direction != domain.SourceKalshi {
		t.Errorf("Direction = %s, want kalshi (higher price)", o.Direction)
	}

	flat := market(domain.SourceKalshi, "kb2", "fed cut july", 0.41)
	if got := newMatcher().Match([]domain.Market{a}, []domain.Market{flat}); len(got) != 0 {
		t.Errorf("divergence 0.01 should be dropped, got %d", len(got))
	}
	unrelated := market(domain.SourceKalshi, "kb3", "bitcoin above 100k", 0.90)
	if got := newMatcher().Match([]domain.Market{a}, []domain.Market{unrelated}); len(got) != 0 {
		t.Errorf("dissimilar titles should be dropped, got %d", len(got))
	}
}

func TestScanDedupAndOrder(t *testing.T) {
	a := []domain.Market{
		market(domain.SourcePolymarket, "p1", "Fed rate cut in June", 0.30),
		market(domain.SourcePolymarket, "p2", "Bitcoin above 150k in 2026", 0.20),
	}
	b := []domain.Market{
		market(domain.SourceKalshi, "k1", "Fed rate cut in June meeting", 0.45),
		market(domain.SourceKalshi, "k2", "Bitcoin above 150k in 2026?", 0.25),
	}
	opps := newMatcher().Scan(a, b)
	if len(opps) != 2 {
		t.Fatalf("Expected 2 distinct pairs, got %d", len(opps))
	}
	if opps[0].MarketA.ID != "p1" || opps[1].MarketA.ID != "p2" {
		t.Errorf("order = %s,%s; want p1 (0.15) before p2 (0.05)", opps[0].MarketA.ID, opps[1].MarketA.ID)
	}
}
