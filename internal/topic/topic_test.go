package topic

import (
	"testing"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/listing"
)

func market(id, question, description string, volume float64) domain.Market {
	m := domain.Market{
		ID:          id,
		Question:    question,
		Description: description,
		Volume:      volume,
		Active:      true,
		Outcomes: []domain.Outcome{
			{Name: "Yes", Price: domain.Price(0.5)},
			{Name: "No", Price: domain.Price(0.5)},
		},
	}
	m.SearchText, m.RawSearchText = listing.BuildSearchText(m)
	return m
}

func TestScoreWeights(t *testing.T) {
	m := market("1", "Will the Fed cut rates in June?", "Resolves on the FOMC statement about inflation.", 100)

	tests := []struct {
		name     string
		required []string
		boost    []string
		matchAll bool
		want     float64
	}{
		{"no required", nil, []string{"fed"}, false, 0},
		{"required in title", []string{"fed"}, nil, false, 3},
		{"required in body", []string{"fomc"}, nil, false, 2},
		{"title and body", []string{"fed", "fomc"}, nil, false, 5},
		{"boosts", []string{"fed"}, []string{"rates", "inflation"}, false, 3 + 1.5 + 1},
		{"no match", []string{"bitcoin"}, []string{"fed"}, false, 0},
		{"matchAll satisfied", []string{"fed", "fomc"}, nil, true, 5},
		{"matchAll unsatisfied", []string{"fed", "bitcoin"}, nil, true, 0},
		{"matchAll off keeps partial", []string{"fed", "bitcoin"}, nil, false, 3},
		{"word boundary", []string{"june?"}, nil, false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(m, tt.required, tt.boost, tt.matchAll); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterByTopicEmptyRequired(t *testing.T) {
	markets := []domain.Market{market("1", "Fed decision", "", 10)}
	if got := FilterByTopic(markets, Probe{Boost: []string{"fed"}}); len(got) != 0 {
		t.Errorf("Expected no results without required keywords, got %d", len(got))
	}
}

func TestFilterByTopicOrdering(t *testing.T) {
	markets := []domain.Market{
		market("body-only", "Rate decision", "The Fed will announce", 10_000),
		market("title-small", "Fed decision in March", "", 100),
		market("title-big", "Fed decision in June", "", 5_000),
		market("none", "Bitcoin above 100k", "", 50_000),
		{ID: "closed", Question: "Fed closed", Active: true, Closed: true, Outcomes: []domain.Outcome{{Name: "Yes"}}},
	}
	got := FilterByTopic(markets, Probe{Required: []string{"fed"}})
	want := []string{"title-big", "title-small", "body-only"}
	if len(got) != len(want) {
		t.Fatalf("got %d markets, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
}
