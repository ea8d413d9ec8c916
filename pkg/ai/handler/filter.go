package handler

import (
	"strings"

	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/store"
	"med-agent-be/pkg/textnorm"
)

type predicate func(store.OutletRecord) bool

func filterRows(rows []store.OutletRecord, preds ...predicate) []store.OutletRecord {
	out := make([]store.OutletRecord, 0, len(rows))
next:
	for _, r := range rows {
		for _, p := range preds {
			if !p(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

// byLocation prefers exact normalized locality matches and falls back to
// substring matches only when no row matches exactly.
func byLocation(rows []store.OutletRecord, location string) []store.OutletRecord {
	want := textnorm.Normalize(location)
	if want == "" {
		return rows
	}
	exact := byExactLocation(rows, location)
	if len(exact) > 0 {
		return exact
	}
	return filterRows(rows, func(r store.OutletRecord) bool {
		got := textnorm.Normalize(r.Locality)
		return got != "" && (strings.Contains(got, want) || strings.Contains(want, got))
	})
}

func byExactLocation(rows []store.OutletRecord, location string) []store.OutletRecord {
	want := textnorm.Normalize(location)
	return filterRows(rows, func(r store.OutletRecord) bool {
		return textnorm.Normalize(r.Locality) == want
	})
}

func contains(field func(store.OutletRecord) string, value string) predicate {
	want := textnorm.Normalize(value)
	return func(r store.OutletRecord) bool {
		return strings.Contains(textnorm.Normalize(field(r)), want)
	}
}

func equals(field func(store.OutletRecord) string, value string) predicate {
	want := strings.TrimSpace(value)
	return func(r store.OutletRecord) bool {
		return strings.TrimSpace(field(r)) == want
	}
}

func hasPrefix(field func(store.OutletRecord) string, value string) predicate {
	want := strings.TrimSpace(value)
	return func(r store.OutletRecord) bool {
		return strings.HasPrefix(strings.TrimSpace(field(r)), want)
	}
}

func phoneMatches(value string) predicate {
	want := textnorm.Digits(value)
	return func(r store.OutletRecord) bool {
		got := textnorm.Digits(r.Phone)
		return got != "" && (strings.Contains(got, want) || strings.Contains(want, got))
	}
}

// commonPredicates turns the attributes shared by both feeds into filters.
func commonPredicates(a decision.Attributes) []predicate {
	var preds []predicate
	if a.SubLocation != nil {
		preds = append(preds, contains(func(r store.OutletRecord) string { return r.SubLocality }, *a.SubLocation))
	}
	ids := []func(store.OutletRecord) string{
		func(r store.OutletRecord) string { return r.RegionID },
		func(r store.OutletRecord) string { return r.LocalityID },
		func(r store.OutletRecord) string { return r.SubLocalID },
	}
	for i, id := range a.IDChain() {
		if id != nil {
			preds = append(preds, equals(ids[i], *id))
		}
	}
	return preds
}

var addressStopWords = textnorm.Set(
	"calle", "avenida", "av", "avda", "pasaje", "camino", "direccion", "numero", "farmacia", "farmacias",
	"en", "la", "el", "de", "del", "los", "las", "que", "hay", "cerca", "donde", "esta",
	"street", "st", "avenue", "ave", "road", "rd", "boulevard", "blvd", "address", "pharmacy", "pharmacies",
	"in", "on", "at", "of", "the", "near", "where", "is", "there", "any", "what", "which",
)

// byAddress keeps the rows whose address shares the most tokens with the
// query. Tokens of exclude (location, dates) never count. When no address
// shares a token the rows are returned unchanged.
func byAddress(rows []store.OutletRecord, query string, exclude ...string) []store.OutletRecord {
	skip := make(map[string]struct{}, len(addressStopWords))
	for w := range addressStopWords {
		skip[w] = struct{}{}
	}
	for _, e := range exclude {
		for _, t := range strings.Fields(textnorm.Normalize(e)) {
			skip[t] = struct{}{}
		}
	}
	tokens := textnorm.Tokens(query, 1, skip)
	if len(tokens) == 0 {
		return rows
	}
	best := 0
	scores := make([]int, len(rows))
	for i, r := range rows {
		addr := " " + textnorm.Normalize(r.Address) + " "
		for _, t := range tokens {
			if strings.Contains(addr, " "+t+" ") {
				scores[i]++
			}
		}
		if scores[i] > best {
			best = scores[i]
		}
	}
	if best == 0 {
		return rows
	}
	out := make([]store.OutletRecord, 0)
	for i, r := range rows {
		if scores[i] == best {
			out = append(out, r)
		}
	}
	return out
}
