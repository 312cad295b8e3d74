package kalshi

import (
	"math"
	"testing"
)

func TestYesPricePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		market APIMarket
		want   float64
		ok     bool
	}{
		{"dollar string wins", APIMarket{LastPriceDollars: "0.6200", LastPrice: 10}, 0.62, true},
		{"cents fallback", APIMarket{LastPrice: 35}, 0.35, true},
		{"bid ask midpoint", APIMarket{YesBid: 40, YesAsk: 50}, 0.45, true},
		{"dollar midpoint", APIMarket{YesBidDollars: "0.1000", YesAskDollars: "0.1400"}, 0.12, true},
		{"no quote", APIMarket{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.market.YesPrice()
			if ok != tt.ok || math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("YesPrice() = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeMultiOutcome(t *testing.T) {
	events := []APIEvent{{
		EventTicker:  "SENATETX-26",
		SeriesTicker: "SENATETX",
		Title:        "Texas Senate winner?",
		Markets: []APIMarket{
			{Ticker: "R", YesSubTitle: "Republican party", Status: "active", LastPriceDollars: "0.70", Volume: 5000},
			{Ticker: "D", YesSubTitle: "Democratic party", Status: "active", LastPriceDollars: "0.29", Volume: 4000},
			{Ticker: "X", YesSubTitle: "Settled", Status: "settled", LastPrice: 1, Volume: 100},
		},
	}}

	markets := Normalize(events, 1000)
	if len(markets) != 1 {
		t.Fatalf("Expected 1 market, got %d", len(markets))
	}
	m := markets[0]
	if m.Volume != 9100 {
		t.Errorf("Volume = %v, want 9100", m.Volume)
	}
	if m.URL != "https://kalshi.com/markets/senatetx" {
		t.Errorf("URL = %s", m.URL)
	}
	if len(m.Outcomes) != 2 || m.Outcomes[0].Name != "Republican party" {
		t.Fatalf("unexpected outcomes %+v", m.Outcomes)
	}
	if math.Abs(*m.Outcomes[1].Price-0.29) > 1e-9 {
		t.Errorf("Democratic price = %v, want 0.29", *m.Outcomes[1].Price)
	}
}

func TestNormalizeBinaryAndFloor(t *testing.T) {
	events := []APIEvent{event("BIG", 5000, 62), event("TINY", 10, 50)}
	markets := Normalize(events, 1000)
	if len(markets) != 1 || markets[0].ID != "BIG" {
		t.Fatalf("Expected only BIG above the floor, got %+v", markets)
	}
	out := markets[0].Outcomes
	if out[0].Name != "Yes" || math.Abs(*out[1].Price-0.38) > 1e-9 {
		t.Errorf("unexpected binary outcomes %+v", out)
	}
}
