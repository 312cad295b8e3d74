package election

import (
	"math"
	"regexp"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/listing"
	"github.com/alanyoungcy/marketlens/internal/textnorm"
)

// Extraction methods recorded on RaceRating.Method.
const (
	MethodPartyLabel      = "party-label"
	MethodQuestionFraming = "question-framing"
	MethodCandidateMap    = "candidate-map"
	MethodIndependent     = "independent"
)

var (
	demLabel   = regexp.MustCompile(`^(?:the )?(?:democrat|democrats|democratic|dem|dems|blue)(?: party| candidate| nominee)?$`)
	repLabel   = regexp.MustCompile(`^(?:the )?(?:republican|republicans|rep|gop|red)(?: party| candidate| nominee)?$`)
	winFraming = regexp.MustCompile(`\b(?:win|wins|won|winning|flip|flips|hold|holds|keep|keeps|retain|retains|take|takes|control|controls)\b`)
)

// Derivation is the win probability pulled out of one market.
type Derivation struct {
	Dem         float64
	Rep         float64
	Independent *float64
	Method      string
}

// RatingFor buckets a Democratic win probability.
func RatingFor(p float64) domain.Rating {
	switch {
	case p >= 0.85:
		return domain.RatingSafeD
	case p >= 0.70:
		return domain.RatingLikelyD
	case p >= 0.57:
		return domain.RatingLeanD
	case p >= 0.43:
		return domain.RatingTossUp
	case p >= 0.30:
		return domain.RatingLeanR
	case p >= 0.15:
		return domain.RatingLikelyR
	default:
		return domain.RatingSafeR
	}
}

// RatingProbability is the probability a rating is bucketed on. For races
// with a significant independent it is the chance the Republican loses.
func (d Derivation) RatingProbability() float64 {
	if d.Independent != nil {
		return 1 - d.Rep
	}
	return d.Dem
}

// DeriveProbability extracts a Democratic win probability from m. The
// boolean is false when no extraction rule applies; such races get no
// rating rather than a 50/50 default.
func (c *Catalog) DeriveProbability(m domain.Market, race domain.Race) (Derivation, bool) {
	if race.Independent {
		if d, ok := c.independentVariant(m); ok {
			return d, true
		}
	}
	if d, ok := fromPartyLabels(m); ok {
		return d, true
	}
	if d, ok := c.fromQuestionFraming(m); ok {
		return d, true
	}
	return c.fromCandidates(m)
}

func labelPrice(m domain.Market, re *regexp.Regexp) (float64, bool) {
	for _, o := range m.Outcomes {
		if o.Price != nil && re.MatchString(textnorm.Normalize(o.Name)) {
			return *o.Price, true
		}
	}
	return 0, false
}

func fromPartyLabels(m domain.Market) (Derivation, bool) {
	if d, ok := labelPrice(m, demLabel); ok {
		rep := 1 - d
		if r, ok := labelPrice(m, repLabel); ok {
			rep = r
		}
		return Derivation{Dem: d, Rep: rep, Method: MethodPartyLabel}, true
	}
	if r, ok := labelPrice(m, repLabel); ok {
		return Derivation{Dem: 1 - r, Rep: r, Method: MethodPartyLabel}, true
	}
	return Derivation{}, false
}

// fromQuestionFraming handles "Will Democrats win the Texas Senate race?"
// style markets, where the Yes price is the framed side's chance. A title
// naming a catalog candidate is framed on that candidate's party.
func (c *Catalog) fromQuestionFraming(m domain.Market) (Derivation, bool) {
	if len(m.Outcomes) == 0 || textnorm.Normalize(m.Outcomes[0].Name) != "yes" {
		return Derivation{}, false
	}
	yes, ok := m.PrimaryPrice()
	if !ok {
		return Derivation{}, false
	}
	title := listing.TitleText(m)
	if !winFraming.MatchString(title) {
		return Derivation{}, false
	}
	d, r := c.candidatesNamed(title)
	if !d && !r {
		d = partyPatterns[domain.PartyDemocrat].MatchString(title)
		r = partyPatterns[domain.PartyRepublican].MatchString(title)
	}
	switch {
	case d && !r:
		return Derivation{Dem: yes, Rep: 1 - yes, Method: MethodQuestionFraming}, true
	case r && !d:
		return Derivation{Dem: 1 - yes, Rep: yes, Method: MethodQuestionFraming}, true
	}
	return Derivation{}, false
}

// candidatesNamed reports which major parties have a catalog candidate named
// in full in the normalized title.
func (c *Catalog) candidatesNamed(title string) (dem, rep bool) {
	for name, p := range c.candidates {
		if !textnorm.ContainsWord(title, name) {
			continue
		}
		switch p {
		case domain.PartyDemocrat:
			dem = true
		case domain.PartyRepublican:
			rep = true
		}
	}
	return dem, rep
}

// fromCandidates sums candidate prices by party. Independents count toward
// the two recognized candidates but stay out of the ratio.
func (c *Catalog) fromCandidates(m domain.Market) (Derivation, bool) {
	var dSum, rSum float64
	matched := 0
	for _, o := range m.Outcomes {
		if o.Price == nil {
			continue
		}
		party, ok := c.CandidateParty(o.Name)
		if !ok {
			continue
		}
		matched++
		switch party {
		case domain.PartyDemocrat:
			dSum += *o.Price
		case domain.PartyRepublican:
			rSum += *o.Price
		}
	}
	if matched < 2 || dSum+rSum <= 0 {
		return Derivation{}, false
	}
	share := dSum / (dSum + rSum)
	return Derivation{Dem: share, Rep: 1 - share, Method: MethodCandidateMap}, true
}

// independentVariant reads the D and R prices straight off the outcomes,
// by party label or else by the best priced candidate of each party, and
// leaves the rest to the independent.
func (c *Catalog) independentVariant(m domain.Market) (Derivation, bool) {
	dem, dOK := labelPrice(m, demLabel)
	rep, rOK := labelPrice(m, repLabel)
	if !dOK || !rOK {
		for _, o := range m.Outcomes {
			if o.Price == nil {
				continue
			}
			party, ok := c.CandidateParty(o.Name)
			if !ok {
				continue
			}
			switch {
			case party == domain.PartyDemocrat && !dOK:
				dem = math.Max(dem, *o.Price)
			case party == domain.PartyRepublican && !rOK:
				rep = math.Max(rep, *o.Price)
			}
		}
	}
	if rep == 0 && dem == 0 {
		return Derivation{}, false
	}
	ind := math.Max(0, 1-rep-dem)
	return Derivation{Dem: dem, Rep: rep, Independent: &ind, Method: MethodIndependent}, true
}
