// Package topic ranks markets against required and boost keyword lists.
package topic

import (
	"sort"
	"strings"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/listing"
	"github.com/alanyoungcy/marketlens/internal/textnorm"
)

const (
	requiredTitleWeight = 3.0
	requiredBodyWeight  = 2.0
	boostTitleWeight    = 1.5
	boostBodyWeight     = 1.0
)

// Probe is an immutable keyword query. At least one Required keyword must
// match for a market to score; with MatchAll every one must.
type Probe struct {
	Name     string   `json:"name"`
	Required []string `json:"required"`
	Boost    []string `json:"boost,omitempty"`
	MatchAll bool     `json:"matchAll,omitempty"`
}

// Ranked is a market paired with its relevance score.
type Ranked struct {
	Market domain.Market
	Score  float64
}

// where a keyword was found
type hit int

const (
	miss hit = iota
	inBody
	inTitle
)

func locate(m domain.Market, title, rawTitle, keyword string) hit {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return miss
	}
	norm := textnorm.Normalize(keyword)
	if textnorm.ContainsWord(title, norm) || textnorm.ContainsWord(rawTitle, keyword) {
		return inTitle
	}
	if textnorm.ContainsWord(m.SearchText, norm) || textnorm.ContainsWord(m.RawSearchText, keyword) {
		return inBody
	}
	return miss
}

// Score returns the relevance of m for the given keywords. Zero means the
// market is excluded.
func Score(m domain.Market, required, boost []string, matchAll bool) float64 {
	if len(required) == 0 {
		return 0
	}
	title := listing.TitleText(m)

	var score float64
	matched := 0
	for _, kw := range required {
		switch locate(m, title, m.Question, kw) {
		case inTitle:
			score += requiredTitleWeight
			matched++
		case inBody:
			score += requiredBodyWeight
			matched++
		}
	}
	if matched == 0 || (matchAll && matched < len(required)) {
		return 0
	}
	for _, kw := range boost {
		switch locate(m, title, m.Question, kw) {
		case inTitle:
			score += boostTitleWeight
		case inBody:
			score += boostBodyWeight
		}
	}
	return score
}

// Score evaluates the probe against m.
func (p Probe) Score(m domain.Market) float64 {
	return Score(m, p.Required, p.Boost, p.MatchAll)
}

// Rank scores every usable market, drops zero scores and orders the rest by
// score then volume, both descending.
func Rank(markets []domain.Market, p Probe) []Ranked {
	out := make([]Ranked, 0)
	for _, m := range markets {
		if !m.Usable() || len(m.Outcomes) == 0 {
			continue
		}
		if s := p.Score(m); s > 0 {
			out = append(out, Ranked{Market: m, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Market.Volume > out[j].Market.Volume
	})
	return out
}

// FilterByTopic returns the markets matching p in rank order.
func FilterByTopic(markets []domain.Market, p Probe) []domain.Market {
	ranked := Rank(markets, p)
	out := make([]domain.Market, len(ranked))
	for i, r := range ranked {
		out[i] = r.Market
	}
	return out
}

// Top returns at most n markets matching p.
func Top(markets []domain.Market, p Probe, n int) []domain.Market {
	out := FilterByTopic(markets, p)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
