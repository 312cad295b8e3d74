package domain

import (
	"math"
	"time"
)

// Source identifies the exchange a Market was listed on.
type Source string

const (
	SourcePolymarket Source = "polymarket"
	SourceKalshi     Source = "kalshi"
)

// Sources is the closed set of exchanges the service ingests.
var Sources = []Source{SourcePolymarket, SourceKalshi}

// Outcome is one named resolution of a Market. A nil Price means the
// exchange had no quote for it.
type Outcome struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price"`
}

// Market is a normalized prediction-market listing. Markets are rebuilt on
// every fetch and never mutated after normalization.
type Market struct {
	ID            string     `json:"id"`
	Question      string     `json:"question"`
	Description   string     `json:"description,omitempty"`
	Volume        float64    `json:"volume"`
	Liquidity     float64    `json:"liquidity"`
	Outcomes      []Outcome  `json:"outcomes"`
	Category      string     `json:"category,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Active        bool       `json:"active"`
	Closed        bool       `json:"closed"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	URL           string     `json:"url"`
	Source        Source     `json:"source"`
	SearchText    string     `json:"searchText"`
	RawSearchText string     `json:"rawSearchText"`
}

// Usable reports whether the market is open for trading.
func (m Market) Usable() bool {
	return m.Active && !m.Closed
}

// PrimaryPrice returns the first outcome's probability.
func (m Market) PrimaryPrice() (float64, bool) {
	if len(m.Outcomes) == 0 || m.Outcomes[0].Price == nil {
		return 0, false
	}
	return *m.Outcomes[0].Price, true
}

// Price returns a pointer to p clamped to [0,1], or nil when p is NaN.
func Price(p float64) *float64 {
	switch {
	case math.IsNaN(p):
		return nil
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	return &p
}

// ArbOpportunity is a pair of same-topic markets on different exchanges
// whose primary prices diverge.
type ArbOpportunity struct {
	MarketA    Market  `json:"marketA"`
	MarketB    Market  `json:"marketB"`
	Similarity float64 `json:"similarity"`
	Divergence float64 `json:"divergence"`
	Direction  Source  `json:"direction"`
}
