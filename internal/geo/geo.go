// Package geo expands a country name into search variants and filters
// markets by geography.
package geo

import (
	"regexp"
	"strings"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/listing"
	"github.com/alanyoungcy/marketlens/internal/textnorm"
)

var sovereignPrefixes = []string{
	"islamic republic of",
	"people's republic of",
	"peoples republic of",
	"democratic republic of",
	"united republic of",
	"federal republic of",
	"republic of",
	"kingdom of",
	"state of",
	"federation of",
	"commonwealth of",
}

var stopwords = map[string]bool{
	"the": true, "of": true, "and": true,
	"de": true, "du": true, "la": true, "le": true, "del": true,
}

// Profile holds the compiled patterns for one country query.
type Profile struct {
	Country  string
	Terms    []string
	Acronyms []string

	termPatterns    []*regexp.Regexp
	acronymPatterns []*regexp.Regexp
}

// BuildSearchProfile expands name into normalized terms and acronyms: the
// full name, the name without sovereign prefixes, the name without
// stopwords, a derived acronym, and any curated aliases.
func BuildSearchProfile(name string) Profile {
	p := Profile{Country: strings.TrimSpace(name)}
	terms := map[string]bool{}
	acronyms := map[string]bool{}

	addTerm := func(t string) {
		if len(t) >= 3 && !terms[t] {
			terms[t] = true
			p.Terms = append(p.Terms, t)
		}
	}
	addAcronym := func(a string) {
		a = strings.ToLower(a)
		if len(a) >= 2 && len(a) <= 4 && !acronyms[a] {
			acronyms[a] = true
			p.Acronyms = append(p.Acronyms, a)
		}
	}

	full := textnorm.Normalize(name)
	if full == "" {
		return p
	}
	addTerm(full)
	stripped := stripPrefix(full)
	addTerm(stripped)
	for _, base := range []string{full, stripped} {
		toks := withoutStopwords(base)
		addTerm(strings.Join(toks, " "))
		if a, ok := deriveAcronym(toks); ok {
			addAcronym(a)
		}
	}

	if canonical, entry, ok := lookupAlias(full, stripped); ok {
		addTerm(canonical)
		if a, ok := deriveAcronym(withoutStopwords(canonical)); ok {
			addAcronym(a)
		}
		for _, n := range entry.names {
			nn := textnorm.Normalize(n)
			addTerm(nn)
			if a, ok := deriveAcronym(withoutStopwords(nn)); ok {
				addAcronym(a)
			}
		}
		for _, a := range entry.acronyms {
			addAcronym(a)
		}
	}

	for _, t := range p.Terms {
		p.termPatterns = append(p.termPatterns, textnorm.WordPattern(t))
	}
	for _, a := range p.Acronyms {
		p.acronymPatterns = append(p.acronymPatterns, acronymPattern(a))
	}
	return p
}

// Matches reports whether m mentions the country by any term (normalized
// text) or acronym (raw text).
func (p Profile) Matches(m domain.Market) bool {
	for _, re := range p.termPatterns {
		if re.MatchString(m.SearchText) {
			return true
		}
	}
	for _, re := range p.acronymPatterns {
		if re.MatchString(m.RawSearchText) {
			return true
		}
	}
	return false
}

// FilterByCountry returns the usable markets mentioning name, ordered by
// volume.
func FilterByCountry(markets []domain.Market, name string) []domain.Market {
	p := BuildSearchProfile(name)
	if len(p.Terms) == 0 && len(p.Acronyms) == 0 {
		return []domain.Market{}
	}
	out := make([]domain.Market, 0)
	for _, m := range markets {
		if m.Usable() && p.Matches(m) {
			out = append(out, m)
		}
	}
	listing.SortByVolume(out)
	return out
}

func stripPrefix(name string) string {
	n := strings.TrimPrefix(name, "the ")
	for _, pre := range sovereignPrefixes {
		pre = textnorm.Normalize(pre)
		if strings.HasPrefix(n, pre+" ") {
			return strings.TrimPrefix(strings.TrimPrefix(n, pre+" "), "the ")
		}
	}
	return n
}

func withoutStopwords(name string) []string {
	var out []string
	for _, t := range strings.Fields(name) {
		if !stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

func deriveAcronym(tokens []string) (string, bool) {
	if len(tokens) < 2 || len(tokens) > 4 {
		return "", false
	}
	var b strings.Builder
	for _, t := range tokens {
		r := []rune(t)[0]
		if r > 'z' || r < 'a' {
			return "", false
		}
		b.WriteRune(r)
	}
	return b.String(), true
}

func lookupAlias(names ...string) (string, alias, bool) {
	for _, n := range names {
		if e, ok := countryAliases[n]; ok {
			return n, e, true
		}
	}
	for canonical, e := range countryAliases {
		for _, alt := range e.names {
			alt = textnorm.Normalize(alt)
			for _, n := range names {
				if n == alt {
					return canonical, e, true
				}
			}
		}
		for _, a := range e.acronyms {
			for _, n := range names {
				if n == a {
					return canonical, e, true
				}
			}
		}
	}
	return "", alias{}, false
}

// acronymPattern matches the letters of a with an optional "." or "-"
// between them. Two-letter acronyms such as "us" collide with ordinary
// words, so they match case-insensitively only in dotted form and otherwise
// require upper case.
func acronymPattern(a string) *regexp.Regexp {
	letters := strings.Split(a, "")
	const sep = `[.\-]?`
	if len(letters) >= 3 {
		body := strings.Join(letters, sep)
		return regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9])` + body + `\.?(?:[^A-Za-z0-9]|$)`)
	}
	upper := strings.ToUpper(strings.Join(letters, sep))
	dotted := strings.Join(letters, `\.`) + `\.`
	return regexp.MustCompile(`(?:^|[^A-Za-z0-9])(?:` + upper + `\.?|(?i:` + dotted + `))(?:[^A-Za-z0-9]|$)`)
}
