package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Identity is an (artist, album) pair in its raw, case-preserved form.
type Identity struct {
	Artist string
	Album  string
}

// New trims surrounding whitespace and returns the identity.
func New(artist, album string) Identity {
	return Identity{Artist: strings.TrimSpace(artist), Album: strings.TrimSpace(album)}
}

// IsZero reports whether both components are empty.
func (id Identity) IsZero() bool {
	return id.Artist == "" && id.Album == ""
}

// Key returns the human-readable "Artist - Album" display key used in
// logs, broadcasts, and loose-match comparisons.
func (id Identity) Key() string {
	return id.Artist + " - " + id.Album
}

// NormalizedKey returns the canonical comparison key for both components.
func (id Identity) NormalizedKey() string {
	return Normalize(id.Artist) + "|" + Normalize(id.Album)
}

// Normalize canonicalizes a free-text label for identity comparison:
// parenthesized and bracketed runs are removed, diacritics are folded,
// and only lowercase alphanumerics survive. Normalize is idempotent.
func Normalize(text string) string {
	stripped := stripBracketed(text)
	folded := norm.NFKD.String(stripped)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// stripBracketed removes every run enclosed in (...) or [...] using a
// non-nesting depth counter. An unbalanced open bracket removes the rest
// of the string, which is the safe direction for noisy edition suffixes.
func stripBracketed(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	depth := 0
	for _, r := range text {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// LooselyEqual implements the three-way "already displayed" rule: exact
// equality, case-insensitive equality, or either string containing the
// other. Empty strings never loosely match anything.
func LooselyEqual(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	if a == b || strings.EqualFold(a, b) {
		return true
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
