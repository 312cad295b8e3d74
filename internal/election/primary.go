package election

import (
	"sort"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/textnorm"
)

// minPrimaryCandidates is the smallest field worth presenting as a primary.
const minPrimaryCandidates = 2

// PrimaryFromMarket reads a dedicated primary market. Binary Yes/No
// markets name a single candidate and do not qualify.
func PrimaryFromMarket(m domain.Market, race domain.Race, now time.Time) (domain.PrimaryResult, bool) {
	var picked []domain.Outcome
	for _, o := range m.Outcomes {
		if o.Price == nil {
			continue
		}
		switch textnorm.Normalize(o.Name) {
		case "yes", "no":
			continue
		}
		picked = append(picked, o)
	}
	return primaryResult(m, race, picked, false, now)
}

// SynthesizePrimary builds a primary for race out of a general-election
// market whose outcomes are individual candidates. Only candidates the
// catalog places in the primary's party are kept, and the result is
// flagged Derived.
func (c *Catalog) SynthesizePrimary(general domain.Market, race domain.Race, now time.Time) (domain.PrimaryResult, bool) {
	if !race.IsPrimary() {
		return domain.PrimaryResult{}, false
	}
	var picked []domain.Outcome
	for _, o := range general.Outcomes {
		if o.Price == nil {
			continue
		}
		if party, ok := c.CandidateParty(o.Name); ok && party == race.PrimaryParty {
			picked = append(picked, o)
		}
	}
	return primaryResult(general, race, picked, true, now)
}

func primaryResult(m domain.Market, race domain.Race, picked []domain.Outcome, derived bool, now time.Time) (domain.PrimaryResult, bool) {
	if len(picked) < minPrimaryCandidates {
		return domain.PrimaryResult{}, false
	}
	var sum float64
	for _, o := range picked {
		sum += *o.Price
	}
	if sum <= 0 {
		return domain.PrimaryResult{}, false
	}
	cands := make([]domain.CandidateShare, len(picked))
	for i, o := range picked {
		cands[i] = domain.CandidateShare{Name: o.Name, Price: *o.Price, Share: *o.Price / sum}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Price > cands[j].Price })

	return domain.PrimaryResult{
		Race:       race,
		MarketID:   m.ID,
		Source:     m.Source,
		Question:   m.Question,
		Candidates: cands,
		Derived:    derived,
		UpdatedAt:  now,
	}, true
}
