// Package textnorm folds strings for accent- and case-insensitive search.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize decomposes s, strips combining marks and lowercases the result,
// so "Pokémon" and "POKEMON" both become "pokemon".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// Transformers and casers are stateful; build them per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Lower(language.Und).String(out)
}

// Contains reports whether the normalized needle occurs in the normalized
// haystack. An empty needle matches everything.
func Contains(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return true
	}
	return strings.Contains(Normalize(haystack), n)
}
