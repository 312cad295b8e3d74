package polymarket

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. Gamma sends
// volume as a number on events and as a string on markets.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 0
	}
	*f = flexFloat(n)
	return nil
}

// APIEvent is an event as returned by the Gamma /events endpoint. An event
// groups one or more binary markets.
type APIEvent struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Tags        []APITag    `json:"tags"`
	Active      flexBool    `json:"active"`
	Closed      flexBool    `json:"closed"`
	Volume      flexFloat   `json:"volume"`
	Liquidity   flexFloat   `json:"liquidity"`
	EndDate     string      `json:"endDate"`
	Markets     []APIMarket `json:"markets"`
}

// APITag is a Gamma event tag.
type APITag struct {
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// APIMarket is a binary sub-market nested inside an APIEvent.
type APIMarket struct {
	ID             string    `json:"id"`
	Question       string    `json:"question"`
	GroupItemTitle string    `json:"groupItemTitle"`
	Outcomes       string    `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices  string    `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	Volume         flexFloat `json:"volume"`
	Liquidity      flexFloat `json:"liquidity"`
	Active         flexBool  `json:"active"`
	Closed         flexBool  `json:"closed"`
}

// YesPrice returns the price of the "Yes" outcome, or of the first outcome
// when the market has no outcome literally named "Yes".
func (m *APIMarket) YesPrice() (float64, bool) {
	names := decodeStrings(m.Outcomes)
	prices := decodeStrings(m.OutcomePrices)
	if len(prices) == 0 {
		return 0, false
	}
	idx := 0
	for i, n := range names {
		if strings.EqualFold(n, "yes") {
			idx = i
			break
		}
	}
	if idx >= len(prices) {
		return 0, false
	}
	p, err := strconv.ParseFloat(prices[idx], 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	return p, true
}

// decodeStrings parses a JSON-encoded string array such as "[\"Yes\",\"No\"]".
func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
