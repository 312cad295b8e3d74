package listing

import (
	"testing"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

func outcomes(names ...string) []domain.Outcome {
	out := make([]domain.Outcome, len(names))
	for i, n := range names {
		out[i] = domain.Outcome{Name: n, Price: domain.Price(0.5)}
	}
	return out
}

func TestIsBracketOutcome(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"8%-10%", true},
		{"2.5 to 3%", true},
		{">5", true},
		{"<= 3 seats", true},
		{"10+ points", true},
		{"3 or more", true},
		{"Win by margin", true},
		{"Yes", false},
		{"Ken Paxton", false},
		{"Democratic Party", false},
		{"2026", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBracketOutcome(tt.name); got != tt.want {
				t.Errorf("IsBracketOutcome(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsBracketMarket(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []domain.Outcome
		want     bool
	}{
		{"two of three brackets", outcomes("8%-10%", "10%-12%", "Yes"), true},
		{"binary", outcomes("Yes", "No"), false},
		{"one of three", outcomes("8%-10%", "Alice", "Bob"), true},
		{"one of four", outcomes("8%-10%", "Alice", "Bob", "Carol"), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBracketMarket(tt.outcomes); got != tt.want {
				t.Errorf("IsBracketMarket() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFinalize(t *testing.T) {
	in := []domain.Market{
		{ID: "low", Question: "Low volume", Volume: 10, Active: true, Outcomes: outcomes("Yes", "No")},
		{ID: "bracket", Question: "CPI", Volume: 5000, Active: true, Outcomes: outcomes("8%-10%", "10%-12%", "Yes")},
		{ID: "empty", Question: "No outcomes", Volume: 5000, Active: true},
		{ID: "closed", Question: "Closed", Volume: 5000, Active: true, Closed: true, Outcomes: outcomes("Yes", "No")},
		{ID: "small", Question: "Small", Volume: 1500, Active: true, Outcomes: outcomes("Yes", "No")},
		{ID: "big", Question: "Big Élection", Description: "Desc", Tags: []string{"Politics"}, Volume: 9000, Active: true, Outcomes: outcomes("Yes", "No")},
	}

	got := Finalize(in, 1000)
	if len(got) != 2 {
		t.Fatalf("Finalize kept %d markets, want 2: %+v", len(got), got)
	}
	if got[0].ID != "big" || got[1].ID != "small" {
		t.Errorf("order = [%s %s], want [big small]", got[0].ID, got[1].ID)
	}
	if got[0].SearchText != "big election desc politics yes no" {
		t.Errorf("SearchText = %q", got[0].SearchText)
	}
	if got[0].RawSearchText != "Big Élection Desc Politics Yes No" {
		t.Errorf("RawSearchText = %q", got[0].RawSearchText)
	}
}

func TestPriceClamp(t *testing.T) {
	if p := *domain.Price(1.2); p != 1 {
		t.Errorf("Price(1.2) = %v, want 1", p)
	}
	if p := *domain.Price(-0.1); p != 0 {
		t.Errorf("Price(-0.1) = %v, want 0", p)
	}
}
