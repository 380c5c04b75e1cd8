package screening

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases s and strips combining marks ("Sánchez" -> "sanchez").
func fold(s string) string {
	// Transformers carry state; build one per call so callers may run concurrently.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// tokens folds s and splits it on anything that is not a letter or digit.
func tokens(s string) []string {
	return strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// phrase is the folded, punctuation-free, single-spaced form of s.
func phrase(s string) string {
	return strings.Join(tokens(s), " ")
}

// containsPhrase reports whether needle occurs in haystack on token boundaries.
func containsPhrase(haystack, needle string) bool {
	if haystack == "" || needle == "" {
		return false
	}
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}
