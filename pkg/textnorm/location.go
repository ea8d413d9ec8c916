package textnorm

import (
	"regexp"
	"strings"
)

// Filler words that end a captured place name. Spanish entries match the
// upstream feed's locale, English ones the API's default language.
var locationStopWords = []string{
	"hoy", "ahora", "ayer", "manana", "y", "e", "que", "cual", "cuales", "me", "puedes", "puede",
	"podrias", "podria", "dime", "dame", "por", "favor", "direccion", "farmacia", "farmacias",
	"donde", "cerca", "cercana", "cercanas", "una", "un", "la", "el", "los", "las",
	"today", "now", "tonight", "tomorrow", "yesterday", "please", "and", "or", "which", "what",
	"that", "where", "near", "nearby", "open", "a", "an", "the", "can", "could", "you", "tell",
	"give", "show", "list", "pharmacy", "pharmacies", "address", "on", "duty", "are", "is", "region",
}

var leadingArticles = Set("the", "a", "an")

var (
	locationPatterns []*regexp.Regexp
	regionPattern    = regexp.MustCompile(`\bregion\s+(?:de\s+|of\s+)?([a-z0-9\s]+?)(?:\s+(?:` + strings.Join(locationStopWords, "|") + `)\b|$)`)
)

func init() {
	tail := `(?:\s+(?:` + strings.Join(locationStopWords, "|") + `)\b|$)`
	for _, head := range []string{
		`\b(?:en|in)\s+(?:(?:la\s+)?comuna\s+de\s+|(?:the\s+)?(?:city|town|commune)\s+of\s+)?`,
		`\b(?:comuna\s+de|commune\s+of)\s+`,
		`\b(?:farmacias?\s+de\s+(?:la\s+comuna\s+de\s+)?|pharmac(?:y|ies)\s+of\s+)`,
	} {
		locationPatterns = append(locationPatterns, regexp.MustCompile(head+`([a-z\s]+?)`+tail))
	}
}

// ExtractLocation applies the ordered location patterns to the normalized text
// and returns the first captured place name. Region is set only when the text
// names one explicitly ("region of X").
func ExtractLocation(text string) (location string, region string) {
	normalized := Normalize(text)
	for _, pattern := range locationPatterns {
		m := pattern.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		if place := trimLeadingArticles(m[1]); place != "" {
			location = place
			break
		}
	}
	if m := regionPattern.FindStringSubmatch(normalized); m != nil {
		region = strings.TrimSpace(m[1])
	}
	return location, region
}

func trimLeadingArticles(s string) string {
	words := strings.Fields(s)
	for len(words) > 0 {
		if _, ok := leadingArticles[words[0]]; !ok {
			break
		}
		words = words[1:]
	}
	return strings.Join(words, " ")
}
