package titlematch

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// MaxYearDifference is the largest year delta still accepted as a fuzzy
// match. Release names frequently carry the production year while the
// catalog carries the release year (or vice versa), so ±1 is tolerated.
const MaxYearDifference = 1

var digitRunPattern = regexp.MustCompile(`\d+`)

// Decision is the matcher's verdict for a single candidate name.
type Decision struct {
	Match     bool
	YearExact bool
}

// Normalize produces the canonical token sequence for a title string.
//
// Rules, in order: ASCII-fold, replace "&"/"+" with "and", lowercase, map
// separator punctuation (whitespace, dots, dashes, underscores) to spaces,
// drop all remaining punctuation, split on whitespace, remove the "and"
// stopword. The result is a pure function of its input and idempotent:
// normalizing already-normalized output yields the same tokens.
func Normalize(s string) []string {
	s = unidecode.Unidecode(s)
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "+", " and ")
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '.' || r == '-' || r == '_':
			b.WriteRune(' ')
		}
		// Everything else (apostrophes, colons, brackets) is dropped so
		// "Don't" and "Dont" normalize identically on both sides.
	}

	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if tok == "and" {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Compact joins a token sequence with no separator. Comparing compact forms
// recovers matches where the release name lost its word spacing entirely
// (e.g. "TheMatrix.1999.1080p").
func Compact(tokens []string) string {
	return strings.Join(tokens, "")
}

// Match decides whether rawName refers to the same movie as the catalog
// title and year. It is a pure predicate: no I/O, deterministic for
// identical inputs.
//
// The candidate must carry a 4-digit year equal to the catalog year
// (exact) or off by one (fuzzy, reported via Decision.YearExact=false).
// The title test passes when the catalog tokens appear as an
// order-preserving subsequence of the candidate tokens, or when the compact
// forms are equal or contained.
func Match(title string, year int, rawName string) Decision {
	want := Normalize(title)
	// An empty catalog title matches nothing; this is an explicit
	// rejection, not a vacuous all-tokens-found match.
	if len(want) == 0 {
		return Decision{}
	}

	exact, fuzzy := scanYears(rawName, year)
	if !exact && !fuzzy {
		return Decision{}
	}

	got := Normalize(rawName)
	if !subsequence(want, got) && !compactContains(want, got) {
		return Decision{}
	}

	return Decision{Match: true, YearExact: exact}
}

// scanYears reports whether any 4-digit window of a digit run in rawName
// equals the wanted year exactly, or lands within MaxYearDifference of it.
// Windows inside longer runs count too, so a name whose year fused with a
// following tag ("Matrix.19991080p") is still dated. A name with no 4-digit
// window at all yields (false, false) and the candidate is rejected.
func scanYears(rawName string, year int) (exact, fuzzy bool) {
	for _, run := range digitRunPattern.FindAllString(rawName, -1) {
		for i := 0; i+4 <= len(run); i++ {
			y := int(run[i]-'0')*1000 + int(run[i+1]-'0')*100 + int(run[i+2]-'0')*10 + int(run[i+3]-'0')
			switch {
			case y == year:
				exact = true
			case y == year-MaxYearDifference || y == year+MaxYearDifference:
				fuzzy = true
			}
		}
	}
	return exact, fuzzy
}

// subsequence reports whether every token of want appears, in order, in
// got. Each got token is consumed at most once, so duplicate tokens in the
// catalog title must be matched by distinct candidate tokens.
func subsequence(want, got []string) bool {
	j := 0
	for _, w := range want {
		for j < len(got) && got[j] != w {
			j++
		}
		if j == len(got) {
			return false
		}
		j++
	}
	return true
}

func compactContains(want, got []string) bool {
	w := Compact(want)
	g := Compact(got)
	if w == "" {
		return false
	}
	return w == g || strings.Contains(g, w)
}
