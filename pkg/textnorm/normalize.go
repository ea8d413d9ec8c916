package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespace = regexp.MustCompile(`\s+`)
	nonDigit   = regexp.MustCompile(`\D`)
)

// Normalize folds case, strips diacritics and punctuation and collapses
// whitespace. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = stripMarks(s)
	s = nonAlnum.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Digits keeps only the decimal digits of s (phone comparisons).
func Digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// Tokens returns the normalized tokens of s longer than minLen that are not in stop.
func Tokens(s string, minLen int, stop map[string]struct{}) []string {
	var out []string
	for _, t := range strings.Fields(Normalize(s)) {
		if len(t) <= minLen {
			continue
		}
		if _, skip := stop[t]; skip {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ContainsAny reports whether normalized text contains any of the markers.
func ContainsAny(normalized string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(normalized, m) {
			return true
		}
	}
	return false
}

// Set builds a lookup set from words.
func Set(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}
