package polymarket

import (
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/listing"
)

const eventURLPrefix = "https://polymarket.com/event/"

// Normalize converts Gamma events into Markets. Each event becomes one
// Market: a single binary sub-market yields Yes/No outcomes, while a
// multi-market event yields one outcome per open sub-market priced by its
// Yes price.
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
		liquidity += float64(sub.Liquidity)
		if bool(sub.Closed) {
			continue
		}
		open = append(open, sub)
	}
	if len(open) == 0 {
		return domain.Market{}, false
	}
	if volume == 0 {
		volume = float64(e.Volume)
	}
	if liquidity == 0 {
		liquidity = float64(e.Liquidity)
	}

	m := domain.Market{
		ID:          e.ID,
		Question:    e.Title,
		Description: e.Description,
		Volume:      volume,
		Liquidity:   liquidity,
		Category:    e.Category,
		Active:      bool(e.Active),
		Closed:      bool(e.Closed),
		URL:         eventURLPrefix + e.Slug,
		Source:      domain.SourcePolymarket,
	}
	if m.Question == "" {
		m.Question = open[0].Question
	}
	for _, t := range e.Tags {
		if t.Label != "" {
			m.Tags = append(m.Tags, t.Label)
		}
	}
	if t, err := time.Parse(time.RFC3339, e.EndDate); err == nil {
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
		name := strings.TrimSpace(sub.GroupItemTitle)
		if name == "" {
			name = sub.Question
		}
		outcomes = append(outcomes, domain.Outcome{Name: name, Price: domain.Price(p)})
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
