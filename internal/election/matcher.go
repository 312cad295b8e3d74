package election

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/listing"
	"github.com/alanyoungcy/marketlens/internal/textnorm"
)

// negativeKeywords mark markets that are never about an election, however
// many state or office words they contain.
var negativeKeywords = []string{
	"nba", "nfl", "mlb", "nhl", "ufc", "premier league", "champions league",
	"super bowl", "world series", "stanley cup", "bitcoin", "btc", "ethereum",
	"eth", "crypto", "solana", "dogecoin", "stock", "s p", "nasdaq",
	"fed rate", "interest rate", "recession", "box office", "grammy", "oscar",
	"eurovision",
}

// Patterns over normalized text.
var (
	officePatterns = map[domain.OfficeType]*regexp.Regexp{
		domain.OfficeSenate:   regexp.MustCompile(`\bsenat`),
		domain.OfficeGovernor: regexp.MustCompile(`\b(?:govern|gubern)`),
		domain.OfficeHouse:    regexp.MustCompile(`\b(?:house|congress\w*|district|cd)\b`),
	}
	primaryPattern = regexp.MustCompile(`\b(?:primary|primaries|nominee|nomination)\b`)
	// "rep" is left out: in titles it is almost always the honorific.
	partyPatterns = map[domain.Party]*regexp.Regexp{
		domain.PartyDemocrat:    regexp.MustCompile(`\b(?:democrat\w*|dems?|dfl)\b`),
		domain.PartyRepublican: regexp.MustCompile(`\b(?:republican\w*|gop)\b`),
	}
	yearPattern     = regexp.MustCompile(`\b(20\d{2})\b`)
	districtPattern = regexp.MustCompile(`\b(?:district|cd)\s*(?:no\s*)?0*(\d{1,2})\b|\b0*(\d{1,2})(?:st|nd|rd|th)?\s+(?:congressional\s+)?district\b`)
)

// codePattern matches a state code as an upper-case token in raw text.
// Ambiguous codes must sit next to a district number.
func codePattern(code string, ambiguous bool) *regexp.Regexp {
	if ambiguous {
		return regexp.MustCompile(`(?:^|[^A-Za-z0-9])` + code + `[- ]?\d{1,2}(?:[^0-9]|$)|(?:^|[^0-9])\d{1,2}[- ]?` + code + `(?:[^A-Za-z]|$)`)
	}
	return regexp.MustCompile(`(?:^|[^A-Za-z])` + code + `(?:[^A-Za-z]|$)`)
}

// NormalizeDistrict parses a district reference such as "07", "7",
// "TX-07", "tx 7" or "district 7" into its integer value. District numbers
// are only ever compared in this form.
func NormalizeDistrict(s string) (int, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "district")
	s = strings.TrimPrefix(s, "cd")
	if len(s) > 2 && s[0] >= 'a' && s[0] <= 'z' && s[1] >= 'a' && s[1] <= 'z' {
		s = s[2:]
	}
	s = strings.TrimLeft(s, " -#")
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 99 {
		return 0, false
	}
	return n, true
}

// Mentioned reports whether the market refers to the state, and whether it
// does so by full name.
func (st *State) Mentioned(m domain.Market) (found, byName bool) {
	text := m.SearchText
	for _, longer := range st.shadowedBy {
		text = strings.ReplaceAll(text, longer, " ")
	}
	// possessives normalize to "texass", "pennsylvanias"
	byName = st.name.MatchString(text)
	return byName || st.code.MatchString(m.RawSearchText), byName
}

// districts returns every district number the market mentions for st.
func (st *State) districts(m domain.Market) map[int]struct{} {
	out := make(map[int]struct{})
	for _, sm := range st.district.FindAllStringSubmatch(m.RawSearchText, -1) {
		if n, ok := NormalizeDistrict(sm[1]); ok {
			out[n] = struct{}{}
		}
	}
	for _, sm := range districtPattern.FindAllStringSubmatch(m.SearchText, -1) {
		for _, g := range sm[1:] {
			if n, ok := NormalizeDistrict(g); ok {
				out[n] = struct{}{}
			}
		}
	}
	return out
}

// officeMatches checks the office keywords. When the title names any office
// it has to be the race's; otherwise the body decides.
func officeMatches(title, text string, office domain.OfficeType) bool {
	named := false
	for o, re := range officePatterns {
		if re.MatchString(title) {
			if o == office {
				return true
			}
			named = true
		}
	}
	return !named && officePatterns[office].MatchString(text)
}

// partyMatches applies the same title-first rule to primary party keywords.
func partyMatches(title, text string, party domain.Party) bool {
	d := partyPatterns[domain.PartyDemocrat].MatchString(title)
	r := partyPatterns[domain.PartyRepublican].MatchString(title)
	if d != r {
		return (party == domain.PartyDemocrat) == d
	}
	return partyPatterns[party].MatchString(text)
}

// yearText is the part of a market that names the contest itself.
// Descriptions are left out because they carry resolution dates.
func yearText(m domain.Market) string {
	parts := []string{m.Question}
	parts = append(parts, m.Tags...)
	for _, o := range m.Outcomes {
		parts = append(parts, o.Name)
	}
	return textnorm.Normalize(strings.Join(parts, " "))
}

// ScoreMatch scores how well m fits race. The boolean is false when any
// hard rule rejects the pairing.
func (c *Catalog) ScoreMatch(m domain.Market, race domain.Race) (float64, bool) {
	st, ok := c.State(race.State)
	if !ok {
		return 0, false
	}
	if m.SearchText == "" || m.RawSearchText == "" {
		m.SearchText, m.RawSearchText = listing.BuildSearchText(m)
	}
	text := m.SearchText
	title := listing.TitleText(m)

	if textnorm.ContainsAny(text, negativeKeywords) {
		return 0, false
	}
	found, byName := st.Mentioned(m)
	if !found {
		return 0, false
	}
	if !officeMatches(title, text, race.Office) {
		return 0, false
	}

	titlePrimary := primaryPattern.MatchString(title)
	if race.IsPrimary() {
		if !titlePrimary || !partyMatches(title, text, race.PrimaryParty) {
			return 0, false
		}
	} else if titlePrimary {
		return 0, false
	}

	if race.Office == domain.OfficeHouse {
		if _, ok := st.districts(m)[race.District]; !ok {
			return 0, false
		}
	}

	cycle := strconv.Itoa(c.cycle)
	for _, y := range yearPattern.FindAllString(yearText(m), -1) {
		if y != cycle {
			return 0, false
		}
	}

	score := 1.0
	if textnorm.ContainsWord(text, cycle) {
		score += 2
	}
	if byName {
		score++
	}
	if race.IsPrimary() {
		score += 2
	}
	if race.Office == domain.OfficeHouse {
		score++
	}
	score += math.Log10(math.Max(m.Volume, 1))
	return score, true
}

// BestMatch returns the highest scoring market for race. Equal scores keep
// the earlier market.
func (c *Catalog) BestMatch(markets []domain.Market, race domain.Race) (domain.MatchResult, bool) {
	var (
		best  domain.MatchResult
		found bool
	)
	for _, m := range markets {
		s, ok := c.ScoreMatch(m, race)
		if !ok {
			continue
		}
		if !found || s > best.Score {
			best = domain.MatchResult{Race: race, Market: m, Score: s}
			found = true
		}
	}
	return best, found
}
