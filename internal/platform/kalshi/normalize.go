package kalshi

import (
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/listing"
)

const marketURLPrefix = "https://kalshi.com/markets/"

// Normalize converts Kalshi events into Markets, one per event.
func Normalize(events []APIEvent, minVolume float64) []domain.Market {
	markets := make([]domain.Market, 0, len(events))
	for i := range events {
		if m, ok := toMarket(&events[i]); ok {
			markets = append(markets, m)
		}
	}
	return listing.Finalize(markets, minVolume)
}

func toMarket(e *APIEvent) (domain.Market, bool) {
	var open []*APIMarket
	var volume, liquidity float64
	for i := range e.Markets {
		sub := &e.Markets[i]
		volume += float64(sub.Volume)
		liquidity += sub.LiquidityUSD()
		if sub.Open() {
			open = append(open, sub)
		}
	}
	if len(open) == 0 {
		return domain.Market{}, false
	}

	series := e.SeriesTicker
	if series == "" {
		series = e.EventTicker
	}
	m := domain.Market{
		ID:          e.EventTicker,
		Question:    e.Title,
		Description: e.SubTitle,
		Volume:      volume,
		Liquidity:   liquidity,
		Category:    e.Category,
		Active:      true,
		URL:         marketURLPrefix + strings.ToLower(series),
		Source:      domain.SourceKalshi,
	}
	if m.Question == "" {
		m.Question = open[0].Title
	}
	if t, err := time.Parse(time.RFC3339, open[0].CloseTime); err == nil {
		m.EndDate = &t
	}

	if len(open) == 1 {
		p, ok := open[0].YesPrice()
		if !ok {
			return domain.Market{}, false
		}
		m.Outcomes = []domain.Outcome{
			{Name: "Yes", Price: domain.Price(p)},
			{Name: "No", Price: domain.Price(1 - p)},
		}
		return m, true
	}

	outcomes := make([]domain.Outcome, 0, len(open))
	for _, sub := range open {
		p, ok := sub.YesPrice()
		if !ok {
			continue
		}
		outcomes = append(outcomes, domain.Outcome{Name: sub.OutcomeName(), Price: domain.Price(p)})
	}
	sort.SliceStable(outcomes, func(i, j int) bool {
		return *outcomes[i].Price > *outcomes[j].Price
	})
	if len(outcomes) > listing.MaxOutcomes {
		outcomes = outcomes[:listing.MaxOutcomes]
	}
	m.Outcomes = outcomes
	return m, true
}
