package geo

// countryAliases maps a canonical country name to alternate names and
// acronyms. Lookups work from the canonical name or any listed name.
var countryAliases = map[string]alias{
	"united states":                    {names: []string{"united states of america"}, acronyms: []string{"usa", "us"}},
	"united kingdom":                   {names: []string{"great britain", "britain", "british"}, acronyms: []string{"uk"}},
	"russia":                           {names: []string{"russian federation", "russian"}},
	"china":                            {names: []string{"people's republic of china", "chinese"}, acronyms: []string{"prc"}},
	"south korea":                      {names: []string{"republic of korea"}, acronyms: []string{"rok"}},
	"north korea":                      {names: []string{"democratic people's republic of korea"}, acronyms: []string{"dprk"}},
	"iran":                             {names: []string{"islamic republic of iran", "iranian", "persia"}},
	"israel":                           {names: []string{"israeli"}},
	"united arab emirates":             {names: []string{"emirates", "emirati"}, acronyms: []string{"uae"}},
	"democratic republic of the congo": {names: []string{"congo kinshasa"}, acronyms: []string{"drc"}},
	"czechia":                          {names: []string{"czech republic", "czech"}},
	"turkey":                           {names: []string{"türkiye", "turkish"}},
	"ivory coast":                      {names: []string{"côte d'ivoire"}},
	"myanmar":                          {names: []string{"burma"}},
	"vatican city":                     {names: []string{"holy see", "vatican"}},
	"venezuela":                        {names: []string{"venezuelan", "bolivarian republic of venezuela"}},
	"ukraine":                          {names: []string{"ukrainian"}},
	"taiwan":                           {names: []string{"taiwanese"}},
	"palestine":                        {names: []string{"palestinian", "gaza", "west bank"}},
	"saudi arabia":                     {names: []string{"saudi"}, acronyms: []string{"ksa"}},
	"netherlands":                      {names: []string{"holland", "dutch"}},
	"germany":                          {names: []string{"german"}},
	"france":                           {names: []string{"french"}},
	"japan":                            {names: []string{"japanese"}},
	"india":                            {names: []string{"indian"}},
	"mexico":                           {names: []string{"mexican"}},
	"canada":                           {names: []string{"canadian"}},
}

type alias struct {
	names    []string
	acronyms []string
}
