// Package listing holds the normalization rules shared by every exchange
// adapter: search text construction, the bracket-market filter, volume
// floors and ordering.
package listing

import (
	"regexp"
	"sort"
	"strings"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/textnorm"
)

// MaxOutcomes caps the outcomes kept from a multi-outcome event.
const MaxOutcomes = 6

var bracketPatterns = []*regexp.Regexp{
	// comparison operator next to a number: ">5", "<= 3", "10+"
	regexp.MustCompile(`[<>≤≥]=?\s*\$?\d|\d\s*[<>≤≥]|\d\+`),
	// numeric range ending in a percent sign: "8%-10%", "2.5 to 3%"
	regexp.MustCompile(`\d+(?:\.\d+)?\s*%?\s*(?:-|–|—|to)\s*\d+(?:\.\d+)?\s*%`),
	regexp.MustCompile(`(?i)\bor\s+(?:more|fewer|less|higher|lower)\b`),
	regexp.MustCompile(`(?i)\bmargin\b`),
}

// IsBracketOutcome reports whether an outcome label reads as a numeric
// bracket or threshold rather than a discrete candidate.
func IsBracketOutcome(name string) bool {
	for _, re := range bracketPatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// IsBracketMarket reports whether at least a third of the outcomes are
// bracket-like.
func IsBracketMarket(outcomes []domain.Outcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	n := 0
	for _, o := range outcomes {
		if IsBracketOutcome(o.Name) {
			n++
		}
	}
	return n*3 >= len(outcomes)
}

// BuildSearchText returns the normalized and raw concatenations of the
// market's question, description, category, tags and outcome names.
func BuildSearchText(m domain.Market) (normalized, raw string) {
	parts := make([]string, 0, 3+len(m.Tags)+len(m.Outcomes))
	parts = append(parts, m.Question, m.Description, m.Category)
	parts = append(parts, m.Tags...)
	for _, o := range m.Outcomes {
		parts = append(parts, o.Name)
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	raw = strings.Join(nonEmpty, " ")
	return textnorm.Normalize(raw), raw
}

// Finalize applies the shared rules to freshly converted markets: it fills
// the search text, drops markets with no outcomes, below minVolume, not
// usable, or bracket-like, and sorts the rest by descending volume.
func Finalize(markets []domain.Market, minVolume float64) []domain.Market {
	out := make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if len(m.Outcomes) == 0 || m.Volume < minVolume || !m.Usable() {
			continue
		}
		if IsBracketMarket(m.Outcomes) {
			continue
		}
		m.SearchText, m.RawSearchText = BuildSearchText(m)
		out = append(out, m)
	}
	SortByVolume(out)
	return out
}

// SortByVolume orders markets by descending volume, stable on input order.
func SortByVolume(markets []domain.Market) {
	sort.SliceStable(markets, func(i, j int) bool {
		return markets[i].Volume > markets[j].Volume
	})
}

// TitleText returns the normalized question, used as the "title" for
// weighting and similarity.
func TitleText(m domain.Market) string {
	return textnorm.Normalize(m.Question)
}
