package kalshi

import (
	"strings"

	"github.com/shopspring/decimal"
)

// --------------------------------------------------------------------------
// Kalshi API DTOs
// --------------------------------------------------------------------------

// APIEvent is an event returned by /events with nested markets.
type APIEvent struct {
	EventTicker  string      `json:"event_ticker"`
	SeriesTicker string      `json:"series_ticker"`
	Title        string      `json:"title"`
	SubTitle     string      `json:"sub_title"`
	Category     string      `json:"category"`
	Markets      []APIMarket `json:"markets"`
}

// APIMarket is a single binary market inside an event. Prices arrive both
// as integer cents and as fixed-point dollar strings; the dollar fields are
// preferred when present.
type APIMarket struct {
	Ticker           string `json:"ticker"`
	Title            string `json:"title"`
	Subtitle         string `json:"subtitle"`
	YesSubTitle      string `json:"yes_sub_title"`
	Status           string `json:"status"` // "active", "open", "closed", "settled"
	LastPrice        int64  `json:"last_price"`
	LastPriceDollars string `json:"last_price_dollars"`
	YesBid           int64  `json:"yes_bid"`
	YesAsk           int64  `json:"yes_ask"`
	YesBidDollars    string `json:"yes_bid_dollars"`
	YesAskDollars    string `json:"yes_ask_dollars"`
	Volume           int64  `json:"volume"`
	Liquidity        int64  `json:"liquidity"`
	LiquidityDollars string `json:"liquidity_dollars"`
	CloseTime        string `json:"close_time"`
	RulesPrimary     string `json:"rules_primary"`
}

// KalshiErrorResponse represents a Kalshi API error response.
type KalshiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var hundred = decimal.NewFromInt(100)

// Open reports whether the market is still trading.
func (m *APIMarket) Open() bool {
	switch strings.ToLower(m.Status) {
	case "closed", "settled", "finalized", "determined":
		return false
	}
	return true
}

// YesPrice returns the Yes probability: the last traded price when there
// is one, otherwise the bid/ask midpoint.
func (m *APIMarket) YesPrice() (float64, bool) {
	if p, ok := dollars(m.LastPriceDollars, m.LastPrice); ok && p.IsPositive() {
		return p.InexactFloat64(), true
	}
	bid, okBid := dollars(m.YesBidDollars, m.YesBid)
	ask, okAsk := dollars(m.YesAskDollars, m.YesAsk)
	switch {
	case okBid && okAsk && ask.IsPositive():
		return bid.Add(ask).Div(decimal.NewFromInt(2)).InexactFloat64(), true
	case okAsk && ask.IsPositive():
		return ask.InexactFloat64(), true
	case okBid && bid.IsPositive():
		return bid.InexactFloat64(), true
	}
	return 0, false
}

// LiquidityUSD returns the market liquidity in dollars.
func (m *APIMarket) LiquidityUSD() float64 {
	if l, ok := dollars(m.LiquidityDollars, m.Liquidity); ok {
		return l.InexactFloat64()
	}
	return 0
}

// OutcomeName prefers the per-market title over the generic label.
func (m *APIMarket) OutcomeName() string {
	for _, s := range []string{m.YesSubTitle, m.Subtitle, m.Title} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return m.Ticker
}

// dollars parses a fixed-point dollar string, falling back to an integer
// cents value when the string is absent or malformed.
func dollars(s string, cents int64) (decimal.Decimal, bool) {
	if s != "" {
		if d, err := decimal.NewFromString(s); err == nil {
			return d, true
		}
	}
	if cents != 0 {
		return decimal.NewFromInt(cents).Div(hundred), true
	}
	return decimal.Zero, false
}
