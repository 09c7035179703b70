package titlematch

import (
	"strings"
	"testing"
)

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Fast & Furious",
		"The.Matrix.1999.1080p.BluRay.x264-SPARKS",
		"Amélie",
		"Don't Look Up",
		"",
		"  spaced   out  ",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(strings.Join(once, " "))
		if strings.Join(once, "|") != strings.Join(twice, "|") {
			t.Errorf("Normalize not idempotent for %q: %v vs %v", in, once, twice)
		}
	}
}

func TestNormalizeStopword(t *testing.T) {
	a := Normalize("Fast and Furious")
	b := Normalize("Fast & Furious")
	c := Normalize("Fast Furious")

	want := "fast|furious"
	for name, got := range map[string][]string{"and": a, "ampersand": b, "plain": c} {
		if strings.Join(got, "|") != want {
			t.Errorf("%s variant normalized to %v, want [fast furious]", name, got)
		}
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize(""); len(got) != 0 {
		t.Errorf("Normalize(\"\") = %v, want empty", got)
	}
	if got := Normalize("&&& ... ---"); len(got) != 0 {
		t.Errorf("punctuation-only input normalized to %v, want empty", got)
	}
}

func TestMatchExactAndFuzzyYears(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		match     bool
		yearExact bool
	}{
		{"exact year", "The.Matrix.1999.1080p.BluRay.x264", true, true},
		{"year plus one", "The.Matrix.2000.1080p.BluRay.x264", true, false},
		{"year minus one", "The.Matrix.1998.720p.WEB-DL", true, false},
		{"year plus two", "The.Matrix.2001.1080p.BluRay.x264", false, false},
		{"year minus two", "The.Matrix.1997.1080p.BluRay.x264", false, false},
		{"no year token", "The.Matrix.1080p.BluRay.x264", false, false},
		{"year fused with tag", "The.Matrix.19991080p.x265", true, true},
		{"fuzzy year fused with tag", "The.Matrix.20001080p.x265", true, false},
	}

	for _, tc := range cases {
		d := Match("The Matrix", 1999, tc.raw)
		if d.Match != tc.match || d.YearExact != tc.yearExact {
			t.Errorf("%s: Match(%q) = %+v, want match=%v yearExact=%v",
				tc.name, tc.raw, d, tc.match, tc.yearExact)
		}
	}
}

func TestMatchTitleTokens(t *testing.T) {
	if d := Match("The Matrix", 1999, "Inception.1999.1080p.BluRay"); d.Match {
		t.Error("wrong title matched")
	}
	if d := Match("Fast & Furious", 2009, "Fast.and.Furious.2009.720p.x264"); !d.Match {
		t.Error("ampersand/and stopword variants should match")
	}
	// Release-tag tokens trailing the title must not break the match.
	if d := Match("Inside Out 2", 2024, "Inside.Out.2.2024.1080p.WEBRip.x265.10bit-GROUP"); !d.Match || !d.YearExact {
		t.Error("title with trailing release tags should match exactly")
	}
}

func TestMatchEmptyTitle(t *testing.T) {
	if d := Match("", 1999, "Anything.1999.1080p"); d.Match {
		t.Error("empty catalog title must never match")
	}
	if d := Match("&", 1999, "And.1999.1080p"); d.Match {
		t.Error("title that normalizes to nothing must never match")
	}
}

func TestMatchCompactRecovery(t *testing.T) {
	// Spacing lost in the release name: recovered through compact
	// comparison.
	if d := Match("The Matrix", 1999, "TheMatrix.1999.1080p.x265"); !d.Match || !d.YearExact {
		t.Errorf("compact form should match, got %+v", d)
	}
	// The sequel carries a different year, so it is rejected before the
	// compact containment could have accepted it.
	if d := Match("The Matrix", 1999, "TheMatrixReloaded.2003.1080p"); d.Match {
		t.Error("wrong movie (wrong year) must be rejected")
	}
}

func TestMatchDuplicateTokens(t *testing.T) {
	// "New York, New York" needs two distinct "york" tokens in the
	// candidate; a single occurrence must not satisfy the subsequence.
	if d := Match("New York New York", 1977, "New.York.1977.1080p"); d.Match {
		t.Error("duplicate catalog tokens must not be satisfied by a single candidate token")
	}
	if d := Match("New York New York", 1977, "New.York.New.York.1977.1080p"); !d.Match {
		t.Error("full duplicate token sequence should match")
	}
}
