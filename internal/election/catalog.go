// Package election matches markets to a fixed catalog of electoral races and
// derives directional win probabilities and primary breakdowns from them.
package election

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/textnorm"
)

//go:embed catalog.toml
var defaultCatalog []byte

type stateEntry struct {
	Code string `toml:"code"`
	Name string `toml:"name"`
}

type officeEntry struct {
	State  string `toml:"state"`
	Office string `toml:"office"`
}

type houseEntry struct {
	State     string `toml:"state"`
	Districts []int  `toml:"districts"`
}

type primaryEntry struct {
	State   string   `toml:"state"`
	Office  string   `toml:"office"`
	Parties []string `toml:"parties"`
}

type catalogFile struct {
	Cycle          int          `toml:"cycle"`
	States         []stateEntry `toml:"states"`
	AmbiguousCodes []string     `toml:"ambiguous_codes"`
	Races          struct {
		Senate      []string       `toml:"senate"`
		Governor    []string       `toml:"governor"`
		Independent []officeEntry  `toml:"independent"`
		House       []houseEntry   `toml:"house"`
		Primaries   []primaryEntry `toml:"primaries"`
	} `toml:"races"`
	Candidates map[string]string `toml:"candidates"`
}

// State is one catalog state with its precompiled reference patterns.
type State struct {
	Code      string
	Name      string
	Ambiguous bool

	normName string
	name     *regexp.Regexp
	code     *regexp.Regexp
	district *regexp.Regexp
	// longer state names containing this one ("west virginia" for
	// "virginia"), blanked out before the name is looked up
	shadowedBy []string
}

// Catalog is the immutable race catalog for one election cycle.
type Catalog struct {
	cycle      int
	states     map[string]*State
	races      []domain.Race
	candidates map[string]domain.Party
	// unique last name -> party, for outcomes that carry only a surname
	surnames map[string]domain.Party
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file from disk. An empty path returns the
// embedded catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("election: read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a TOML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("election: decode catalog: %w", err)
	}
	if f.Cycle < 2000 || f.Cycle > 2099 {
		return nil, fmt.Errorf("election: catalog cycle %d out of range", f.Cycle)
	}

	c := &Catalog{
		cycle:      f.Cycle,
		states:     make(map[string]*State, len(f.States)),
		candidates: make(map[string]domain.Party, len(f.Candidates)),
		surnames:   make(map[string]domain.Party),
	}

	ambiguous := make(map[string]bool, len(f.AmbiguousCodes))
	for _, code := range f.AmbiguousCodes {
		ambiguous[strings.ToUpper(code)] = true
	}
	for _, s := range f.States {
		code := strings.ToUpper(strings.TrimSpace(s.Code))
		if len(code) != 2 || s.Name == "" {
			return nil, fmt.Errorf("election: invalid state entry %q/%q", s.Code, s.Name)
		}
		norm := textnorm.Normalize(s.Name)
		c.states[code] = &State{
			Code:      code,
			Name:      s.Name,
			Ambiguous: ambiguous[code],
			normName:  norm,
			name:      regexp.MustCompile(`\b` + regexp.QuoteMeta(norm) + `s?\b`),
			code:      codePattern(code, ambiguous[code]),
			district:  regexp.MustCompile(`(?:^|[^A-Za-z])` + code + `[- ]?0*(\d{1,2})(?:[^0-9]|$)`),
		}
	}
	for _, st := range c.states {
		for _, other := range c.states {
			if other != st && other.normName != st.normName && textnorm.ContainsWord(other.normName, st.normName) {
				st.shadowedBy = append(st.shadowedBy, other.normName)
			}
		}
	}

	independent := make(map[string]bool, len(f.Races.Independent))
	for _, e := range f.Races.Independent {
		independent[strings.ToUpper(e.State)+"-"+strings.ToLower(e.Office)] = true
	}

	add := func(r domain.Race) error {
		st, ok := c.states[r.State]
		if !ok {
			return fmt.Errorf("election: race %s references unknown state", r.Key())
		}
		r.StateName = st.Name
		if !r.IsPrimary() && r.Office != domain.OfficeHouse {
			r.Independent = independent[r.State+"-"+string(r.Office)]
		}
		c.races = append(c.races, r)
		return nil
	}

	for _, code := range f.Races.Senate {
		if err := add(domain.Race{State: strings.ToUpper(code), Office: domain.OfficeSenate}); err != nil {
			return nil, err
		}
	}
	for _, code := range f.Races.Governor {
		if err := add(domain.Race{State: strings.ToUpper(code), Office: domain.OfficeGovernor}); err != nil {
			return nil, err
		}
	}
	for _, h := range f.Races.House {
		for _, d := range h.Districts {
			if d <= 0 {
				return nil, fmt.Errorf("election: %s has invalid district %d", h.State, d)
			}
			if err := add(domain.Race{State: strings.ToUpper(h.State), Office: domain.OfficeHouse, District: d}); err != nil {
				return nil, err
			}
		}
	}
	for _, p := range f.Races.Primaries {
		office, err := parseOffice(p.Office)
		if err != nil {
			return nil, err
		}
		for _, party := range p.Parties {
			pp := domain.Party(strings.ToUpper(party))
			if pp != domain.PartyDemocrat && pp != domain.PartyRepublican {
				return nil, fmt.Errorf("election: primary %s-%s has invalid party %q", p.State, p.Office, party)
			}
			if err := add(domain.Race{State: strings.ToUpper(p.State), Office: office, PrimaryParty: pp}); err != nil {
				return nil, err
			}
		}
	}

	surnameCount := make(map[string]int)
	for name, party := range f.Candidates {
		pp := domain.Party(strings.ToUpper(party))
		switch pp {
		case domain.PartyDemocrat, domain.PartyRepublican, domain.PartyIndependent:
		default:
			return nil, fmt.Errorf("election: candidate %q has invalid party %q", name, party)
		}
		key := textnorm.Normalize(name)
		c.candidates[key] = pp
		if toks := strings.Fields(key); len(toks) > 1 {
			last := toks[len(toks)-1]
			surnameCount[last]++
			c.surnames[last] = pp
		}
	}
	for last, n := range surnameCount {
		if n > 1 {
			delete(c.surnames, last)
		}
	}

	sort.SliceStable(c.races, func(i, j int) bool { return c.races[i].Key() < c.races[j].Key() })
	return c, nil
}

func parseOffice(s string) (domain.OfficeType, error) {
	switch o := domain.OfficeType(strings.ToLower(s)); o {
	case domain.OfficeSenate, domain.OfficeGovernor, domain.OfficeHouse:
		return o, nil
	default:
		return "", fmt.Errorf("election: unknown office %q", s)
	}
}

// Cycle returns the election year the catalog targets.
func (c *Catalog) Cycle() int { return c.cycle }

// Races returns every catalog race ordered by key.
func (c *Catalog) Races() []domain.Race {
	out := make([]domain.Race, len(c.races))
	copy(out, c.races)
	return out
}

// State returns the catalog entry for a two-letter code.
func (c *Catalog) State(code string) (*State, bool) {
	st, ok := c.states[strings.ToUpper(code)]
	return st, ok
}

// States returns every catalog state ordered by code.
func (c *Catalog) States() []*State {
	out := make([]*State, 0, len(c.states))
	for _, st := range c.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ResolveState accepts a two-letter code or a full state name.
func (c *Catalog) ResolveState(s string) (*State, bool) {
	if st, ok := c.State(strings.TrimSpace(s)); ok {
		return st, true
	}
	n := textnorm.Normalize(s)
	for _, st := range c.states {
		if st.normName == n {
			return st, true
		}
	}
	return nil, false
}

// CandidateParty looks up a candidate by outcome label. The label matches
// when it equals a catalog name, contains one as whole words ("Ken Paxton
// (R)"), or is a surname shared by no other catalog candidate.
func (c *Catalog) CandidateParty(label string) (domain.Party, bool) {
	n := textnorm.Normalize(label)
	if n == "" {
		return "", false
	}
	if p, ok := c.candidates[n]; ok {
		return p, true
	}
	for name, p := range c.candidates {
		if textnorm.ContainsWord(n, name) {
			return p, true
		}
	}
	if p, ok := c.surnames[n]; ok {
		return p, true
	}
	return "", false
}
