package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercase", "Will TRUMP Win?", "will trump win"},
		{"diacritics", "Türkiye and Côte d'Ivoire", "turkiye and cote divoire"},
		{"punctuation", "U.S.-China   trade, deal!", "u s china trade deal"},
		{"percent kept", "8%-10%", "8% 10%"},
		{"possessive", "People's Republic", "peoples republic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		text    string
		keyword string
		want    bool
	}{
		{"will the fed cut rates", "fed", true},
		{"federal reserve", "fed", false},
		{"Bitcoin above 100k", "bitcoin", true},
		{"s&p 500 close", "s&p", true},
		{"the gasp", "s&p", false},
		{"anything", "", false},
		{"", "fed", false},
	}
	for _, tt := range tests {
		if got := ContainsWord(tt.text, tt.keyword); got != tt.want {
			t.Errorf("ContainsWord(%q, %q) = %v, want %v", tt.text, tt.keyword, got, tt.want)
		}
	}
}

func TestTokenSet(t *testing.T) {
	set := TokenSet("Fed cuts, fed holds")
	if len(set) != 3 {
		t.Fatalf("TokenSet size = %d, want 3: %v", len(set), set)
	}
	for _, w := range []string{"fed", "cuts", "holds"} {
		if _, ok := set[w]; !ok {
			t.Errorf("TokenSet missing %q", w)
		}
	}
}
