// Package textnorm canonicalizes free text for keyword and similarity
// matching.
package textnorm

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, strips diacritics, turns punctuation into spaces
// and collapses whitespace. Apostrophes are dropped so "people's" becomes
// "peoples".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
		case r == '%':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the whitespace-separated tokens of Normalize(s).
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// TokenSet returns the distinct tokens of s.
func TokenSet(s string) map[string]struct{} {
	toks := Tokens(s)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}

var patterns sync.Map // string -> *regexp.Regexp

// WordPattern returns a case-insensitive pattern matching keyword on word
// boundaries. Compiled patterns are memoized.
func WordPattern(keyword string) *regexp.Regexp {
	if re, ok := patterns.Load(keyword); ok {
		return re.(*regexp.Regexp)
	}
	expr := `(?i)` + boundary(keyword, true) + regexp.QuoteMeta(keyword) + boundary(keyword, false)
	re := regexp.MustCompile(expr)
	actual, _ := patterns.LoadOrStore(keyword, re)
	return actual.(*regexp.Regexp)
}

// boundary anchors the leading or trailing edge of keyword. \b only works
// next to a word character, so keywords that start or end with punctuation
// are anchored on a non-word neighbour instead.
func boundary(keyword string, leading bool) string {
	if keyword == "" {
		return ""
	}
	var r rune
	if leading {
		r = []rune(keyword)[0]
	} else {
		rs := []rune(keyword)
		r = rs[len(rs)-1]
	}
	if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
		return `\b`
	}
	if leading {
		return `(?:^|\W)`
	}
	return `(?:\W|$)`
}

// ContainsWord reports whether keyword occurs in text as a whole word,
// ignoring case. Empty keywords never match.
func ContainsWord(text, keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || text == "" {
		return false
	}
	return WordPattern(keyword).MatchString(text)
}

// ContainsAny reports whether any of keywords occurs in text as a whole word.
func ContainsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if ContainsWord(text, k) {
			return true
		}
	}
	return false
}
