package identity_test

import (
	"testing"

	"segue/internal/identity"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase and punctuation", "The Beatles!", "thebeatles"},
		{"parenthesized run removed", "The Beatles (Remastered)", "thebeatles"},
		{"bracketed run removed", "OK Computer [OKNOTOK Edition]", "okcomputer"},
		{"nested-ish brackets treated flat", "Abbey Road (Super (Deluxe))", "abbeyroad"},
		{"unbalanced bracket drops remainder", "Loveless (Reissue", "loveless"},
		{"diacritics folded", "Björk", "bjork"},
		{"digits kept", "4:44", "444"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := identity.Normalize(tc.input)
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"The Beatles (Remastered)",
		"Sigur Rós - ( )",
		"múm [early recordings]",
		"plain text",
		"((((",
	}
	for _, input := range inputs {
		once := identity.Normalize(input)
		twice := identity.Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalizedEquality(t *testing.T) {
	if identity.Normalize("The Beatles (Remastered)") != identity.Normalize("TheBeatles") {
		t.Fatal("expected remastered suffix to normalize away")
	}
}

func TestLooselyEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"exact", "Radiohead - OK Computer", "Radiohead - OK Computer", true},
		{"case insensitive", "radiohead - ok computer", "Radiohead - OK Computer", true},
		{"a contains b", "Radiohead - OK Computer OKNOTOK 1997 2017", "OK Computer", true},
		{"b contains a", "OK Computer", "Radiohead - OK Computer", true},
		{"distinct", "Radiohead - Kid A", "Radiohead - Amnesiac", false},
		{"empty never matches", "", "Radiohead - Kid A", false},
		{"both empty", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := identity.LooselyEqual(tc.a, tc.b); got != tc.want {
				t.Fatalf("LooselyEqual(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestIdentityKeys(t *testing.T) {
	id := identity.New("  Radiohead ", "OK Computer")
	if id.Key() != "Radiohead - OK Computer" {
		t.Fatalf("unexpected key %q", id.Key())
	}
	other := identity.New("RADIOHEAD", "ok computer (remastered)")
	if id.NormalizedKey() != other.NormalizedKey() {
		t.Fatalf("expected normalized keys to match: %q vs %q", id.NormalizedKey(), other.NormalizedKey())
	}
}
