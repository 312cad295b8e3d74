package domain

import (
	"fmt"
	"time"
)

// OfficeType is the office contested in a Race.
type OfficeType string

const (
	OfficeSenate   OfficeType = "senate"
	OfficeGovernor OfficeType = "governor"
	OfficeHouse    OfficeType = "house"
)

// Party is a party label used by the candidate map and primaries.
type Party string

const (
	PartyDemocrat    Party = "D"
	PartyRepublican  Party = "R"
	PartyIndependent Party = "I"
)

// Race is a single catalog contest. Races are declared at startup and never
// discovered.
type Race struct {
	State        string     `json:"state"`
	StateName    string     `json:"stateName"`
	Office       OfficeType `json:"office"`
	District     int        `json:"district,omitempty"`
	PrimaryParty Party      `json:"primaryParty,omitempty"`
	Independent  bool       `json:"independent,omitempty"`
}

// IsPrimary reports whether the race is a party primary.
func (r Race) IsPrimary() bool {
	return r.PrimaryParty != ""
}

// Key returns a stable identifier such as "TX-senate", "TX-house-07" or
// "TX-senate-primary-R".
func (r Race) Key() string {
	k := r.State + "-" + string(r.Office)
	if r.Office == OfficeHouse && r.District > 0 {
		k += fmt.Sprintf("-%02d", r.District)
	}
	if r.IsPrimary() {
		k += "-primary-" + string(r.PrimaryParty)
	}
	return k
}

// Rating is a directional race rating bucket.
type Rating string

const (
	RatingSafeD   Rating = "safe-d"
	RatingLikelyD Rating = "likely-d"
	RatingLeanD   Rating = "lean-d"
	RatingTossUp  Rating = "toss-up"
	RatingLeanR   Rating = "lean-r"
	RatingLikelyR Rating = "likely-r"
	RatingSafeR   Rating = "safe-r"
)

// MatchResult pairs a race with its best market for one derivation pass.
type MatchResult struct {
	Race   Race
	Market Market
	Score  float64
}

// RaceRating is the derived probability view for one race. Rating is
// bucketed on the chance the Republican loses when an independent is in the
// race; DemRating always buckets DemProbability.
type RaceRating struct {
	Race           Race      `json:"race"`
	MarketID       string    `json:"marketId"`
	Source         Source    `json:"source"`
	Question       string    `json:"question"`
	URL            string    `json:"url"`
	DemProbability float64   `json:"demProbability"`
	RepProbability float64   `json:"repProbability"`
	Independent    *float64  `json:"independent,omitempty"`
	Rating         Rating    `json:"rating"`
	DemRating      Rating    `json:"demRating,omitempty"`
	Method         string    `json:"method"`
	Volume         float64   `json:"volume"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CandidateShare is one candidate's share within a primary.
type CandidateShare struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Share float64 `json:"share"`
}

// PrimaryResult is a primary breakdown. Derived marks results synthesized
// from a general-election market rather than a dedicated primary market.
type PrimaryResult struct {
	Race       Race             `json:"race"`
	MarketID   string           `json:"marketId"`
	Source     Source           `json:"source"`
	Question   string           `json:"question"`
	Candidates []CandidateShare `json:"candidates"`
	Derived    bool             `json:"derived"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// ElectionSnapshot is the output of one election refresh, keyed by race key.
type ElectionSnapshot struct {
	Ratings   map[string]RaceRating    `json:"ratings"`
	Primaries map[string]PrimaryResult `json:"primaries"`
	UpdatedAt time.Time                `json:"updatedAt"`
	Partial   bool                     `json:"partial"`
}

// Empty reports whether the snapshot carries no derived data.
func (s ElectionSnapshot) Empty() bool {
	return len(s.Ratings) == 0 && len(s.Primaries) == 0
}
