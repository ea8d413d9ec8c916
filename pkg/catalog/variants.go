package catalog

import "strings"

// Singular applies the crude English plural rules used to widen recall:
// "ies" becomes "y", then a trailing "es", then a trailing "s" is dropped.
func Singular(w string) string {
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 3:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "es") && len(w) > 2:
		return w[:len(w)-2]
	case strings.HasSuffix(w, "s") && len(w) > 1:
		return w[:len(w)-1]
	}
	return w
}

// Variants returns every alias followed by its singular form, deduplicated in
// first-seen order.
func Variants(aliases []string) []string {
	seen := make(map[string]struct{}, len(aliases)*2)
	out := make([]string, 0, len(aliases)*2)
	add := func(s string) {
		s = strings.TrimSpace(strings.ToLower(s))
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, a := range aliases {
		add(a)
		add(Singular(strings.TrimSpace(strings.ToLower(a))))
	}
	return out
}
