package polymarket

import (
	"encoding/json"
	"math"
	"testing"
)

const multiEventJSON = `[{
  "id": "ev1",
  "title": "Texas Senate Election Winner",
  "slug": "texas-senate-election-winner",
  "description": "Who will win the 2026 Texas Senate race?",
  "active": true,
  "closed": false,
  "tags": [{"label": "Politics"}],
  "markets": [
    {"id": "a", "question": "Will Ken Paxton win?", "groupItemTitle": "Ken Paxton", "outcomes": "[\"Yes\",\"No\"]", "outcomePrices": "[\"0.35\",\"0.65\"]", "volume": "1200.5", "active": true, "closed": false},
    {"id": "b", "question": "Will Colin Allred win?", "groupItemTitle": "Colin Allred", "outcomes": "[\"Yes\",\"No\"]", "outcomePrices": "[\"0.62\",\"0.38\"]", "volume": 3000, "active": true, "closed": false},
    {"id": "c", "question": "Will someone else win?", "groupItemTitle": "", "outcomes": "[\"Yes\",\"No\"]", "outcomePrices": "[\"0.03\",\"0.97\"]", "volume": "10", "active": true, "closed": false},
    {"id": "d", "question": "Will a withdrawn candidate win?", "groupItemTitle": "Withdrawn", "outcomes": "[\"Yes\",\"No\"]", "outcomePrices": "[\"0\",\"1\"]", "volume": "50", "active": true, "closed": true}
  ]
}]`

func TestNormalizeMultiMarketEvent(t *testing.T) {
	var events []APIEvent
	if err := json.Unmarshal([]byte(multiEventJSON), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}

	markets := Normalize(events, 1000)
	if len(markets) != 1 {
		t.Fatalf("Expected 1 market, got %d", len(markets))
	}
	m := markets[0]
	if math.Abs(m.Volume-4260.5) > 1e-9 {
		t.Errorf("Volume = %v, want 4260.5 (summed over sub-markets)", m.Volume)
	}
	if m.URL != "https://polymarket.com/event/texas-senate-election-winner" {
		t.Errorf("URL = %s", m.URL)
	}
	if len(m.Outcomes) != 3 {
		t.Fatalf("Expected 3 open outcomes, got %d", len(m.Outcomes))
	}
	wantNames := []string{"Colin Allred", "Ken Paxton", "Will someone else win?"}
	for i, want := range wantNames {
		if m.Outcomes[i].Name != want {
			t.Errorf("outcome[%d] = %q, want %q", i, m.Outcomes[i].Name, want)
		}
	}
	if m.SearchText == "" || m.RawSearchText == "" {
		t.Error("search text not populated")
	}
}

func TestNormalizeBinaryEvent(t *testing.T) {
	events := []APIEvent{binaryEvent("1", 5000, "0.7")}
	markets := Normalize(events, 1000)
	if len(markets) != 1 {
		t.Fatalf("Expected 1 market, got %d", len(markets))
	}
	out := markets[0].Outcomes
	if len(out) != 2 || out[0].Name != "Yes" || out[1].Name != "No" {
		t.Fatalf("Expected Yes/No outcomes, got %+v", out)
	}
	if math.Abs(*out[0].Price-0.7) > 1e-9 || math.Abs(*out[1].Price-0.3) > 1e-9 {
		t.Errorf("prices = %v/%v, want 0.7/0.3", *out[0].Price, *out[1].Price)
	}
}

func TestNormalizeSkipsNonFinitePrices(t *testing.T) {
	multi := APIEvent{
		ID:     "ev2",
		Title:  "Ohio Governor Election Winner",
		Slug:   "ohio-governor",
		Active: true,
		Markets: []APIMarket{
			{ID: "x", GroupItemTitle: "Vivek Ramaswamy", Outcomes: `["Yes","No"]`, OutcomePrices: `["NaN","NaN"]`, Volume: 3000, Active: true},
			{ID: "y", GroupItemTitle: "Amy Acton", Outcomes: `["Yes","No"]`, OutcomePrices: `["Inf","0"]`, Volume: 3000, Active: true},
			{ID: "z", GroupItemTitle: "Tim Ryan", Outcomes: `["Yes","No"]`, OutcomePrices: `["0.2","0.8"]`, Volume: 3000, Active: true},
		},
	}
	markets := Normalize([]APIEvent{binaryEvent("nan", 5000, "NaN"), multi}, 1000)
	if len(markets) != 1 {
		t.Fatalf("Expected only the multi-outcome market, got %d", len(markets))
	}
	out := markets[0].Outcomes
	if len(out) != 1 || out[0].Name != "Tim Ryan" {
		t.Fatalf("outcomes = %+v, want only the finite price", out)
	}
	if p := *out[0].Price; p < 0 || p > 1 {
		t.Errorf("price = %v outside [0,1]", p)
	}
	if _, err := json.Marshal(markets[0]); err != nil {
		t.Errorf("market does not encode: %v", err)
	}
}

func TestNormalizeVolumeFloorAndOrder(t *testing.T) {
	events := []APIEvent{
		binaryEvent("small", 500, "0.5"),
		binaryEvent("mid", 2000, "0.5"),
		binaryEvent("big", 9000, "0.5"),
	}
	markets := Normalize(events, 1000)
	if len(markets) != 2 {
		t.Fatalf("Expected 2 markets above floor, got %d", len(markets))
	}
	if markets[0].ID != "big" || markets[1].ID != "mid" {
		t.Errorf("order = %s,%s, want big,mid", markets[0].ID, markets[1].ID)
	}
}

func TestNormalizeCapsOutcomes(t *testing.T) {
	e := APIEvent{ID: "many", Title: "Many", Active: true}
	for i := 0; i < 9; i++ {
		e.Markets = append(e.Markets, APIMarket{
			ID:             string(rune('a' + i)),
			GroupItemTitle: "Candidate " + string(rune('A'+i)),
			Outcomes:       `["Yes","No"]`,
			OutcomePrices:  `["0.1","0.9"]`,
			Volume:         1000,
		})
	}
	markets := Normalize([]APIEvent{e}, 0)
	if len(markets) != 1 {
		t.Fatalf("Expected 1 market, got %d", len(markets))
	}
	if got := len(markets[0].Outcomes); got != 6 {
		t.Errorf("Expected outcomes capped at 6, got %d", got)
	}
}
