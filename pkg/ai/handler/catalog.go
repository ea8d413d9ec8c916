package handler

import (
	"context"
	"regexp"
	"strings"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/ai/state"
	"med-agent-be/pkg/catalog"
	"med-agent-be/pkg/classifier"
	"med-agent-be/pkg/store"
	"med-agent-be/pkg/textnorm"
)

// Searcher is the catalog search surface the handler uses.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]store.CatalogEntry, error)
	ListByField(ctx context.Context, field store.CatalogField, value string, synonyms []string, k int) ([]string, error)
}

const (
	byNameK      = 12
	usedForK     = 8
	aliasK       = 5
	listK        = 100
	maxEntries   = 5
	maxPivotToks = 8
)

var byNameMarkers = []string{
	"what is ", "whats ", "tell me about", "information about", "information on", "what can you tell me",
	"que es ", "para que sirve", "informacion de", "informacion sobre", "hablame de", "que me puedes decir",
}

var usedForPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwhat (?:is|are) (?:the )?(.+?) used for\b`),
	regexp.MustCompile(`\bpara que (?:sirve|sirven|se usa|se usan) (?:el |la |los |las )?(.+)$`),
}

var focusStopWords = textnorm.Set(
	"what", "whats", "tell", "about", "information", "medication", "medications", "medicine", "medicines",
	"drug", "drugs", "used", "with", "does", "the", "that", "this", "please", "which", "there",
	"que", "para", "sirve", "sirven", "informacion", "sobre", "medicamento", "medicamentos", "farmaco",
	"farmacos", "remedio", "hablame", "puedes", "decir", "cual", "cuales", "usan", "usa", "del",
)

// Catalog answers questions about catalog entries.
type Catalog struct {
	classifier classifier.Classifier
	search     Searcher
	logger     logger.ILogger
}

func NewCatalog(c classifier.Classifier, s Searcher, log logger.ILogger) *Catalog {
	return &Catalog{classifier: c, search: s, logger: log}
}

func (h *Catalog) Route() decision.Route { return decision.RouteCatalog }

// Handle returns catalog.ErrIndexUnavailable untouched so the turn can abort.
func (h *Catalog) Handle(ctx context.Context, req Request) (state.Partial, error) {
	intent, err := h.classifier.CatalogIntent(ctx, req.Text)
	if err != nil {
		h.logger.Warn(module, "Catalog intent unavailable, assuming by-name", map[string]interface{}{"error": err.Error()})
		intent = classifier.CatalogIntent{Mode: classifier.ModeByName}
	}
	normalized := " " + textnorm.Normalize(req.Text) + " "
	if intent.Mode != classifier.ModeByName && textnorm.ContainsAny(normalized, byNameMarkers) {
		intent = classifier.CatalogIntent{Mode: classifier.ModeByName}
	}

	var result *state.CatalogResult
	if field, ok := intent.Mode.Field(); ok {
		result, err = h.list(ctx, field, intent.Target, req.Text)
	} else {
		result, err = h.byName(ctx, intent.Target, req.Text)
	}
	if err != nil {
		return state.Partial{}, err
	}
	return state.Partial{Catalog: result}, nil
}

func (h *Catalog) list(ctx context.Context, field store.CatalogField, target, text string) (*state.CatalogResult, error) {
	pivot := Pivot(target, text)
	aliases := h.translate(ctx, pivot)

	value := pivot
	if len(aliases) > 0 {
		value = aliases[0]
	}
	synonyms := catalog.Variants(append([]string{pivot}, aliases...))

	names, err := h.search.ListByField(ctx, field, value, synonyms, listK)
	if err != nil {
		return nil, err
	}
	return &state.CatalogResult{
		ListMode: true,
		Field:    field,
		Target:   pivot,
		Names:    names,
		NotFound: len(names) == 0,
		Query:    value,
	}, nil
}

func (h *Catalog) byName(ctx context.Context, target, text string) (*state.CatalogResult, error) {
	query, k := text, byNameK
	if subject := usedForSubject(text); subject != "" {
		query, k = subject, usedForK
	}

	focus := Focus(target, query)
	aliases := h.translate(ctx, focus)
	keys := catalog.Variants(append([]string{focus}, aliases...))

	entries, err := h.search.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if focus != "" {
		entries = matchingNames(entries, keys)
		if len(entries) == 0 && len(aliases) > 0 {
			query = aliases[0]
			more, err := h.search.Search(ctx, query, aliasK)
			if err != nil {
				return nil, err
			}
			entries = matchingNames(more, keys)
		}
	}

	result := &state.CatalogResult{Target: focus, Query: query, Entries: capRows(entries, maxEntries)}
	result.NotFound = len(result.Entries) == 0
	return result, nil
}

func (h *Catalog) translate(ctx context.Context, term string) []string {
	if term == "" {
		return nil
	}
	aliases, err := h.classifier.Translate(ctx, term)
	if err != nil {
		h.logger.Warn(module, "Translation unavailable", map[string]interface{}{"term": term, "error": err.Error()})
		return nil
	}
	return aliases
}

// Pivot is the term a list query filters on: the classifier's target when
// given, else the text. Long pivots collapse to their last significant token.
func Pivot(target, text string) string {
	pivot := textnorm.Normalize(target)
	if pivot == "" {
		pivot = textnorm.Normalize(text)
	}
	if toks := strings.Fields(pivot); len(toks) > maxPivotToks {
		if sig := textnorm.Tokens(pivot, 3, focusStopWords); len(sig) > 0 {
			return sig[len(sig)-1]
		}
		return toks[len(toks)-1]
	}
	return pivot
}

// Focus is the longest significant token naming the entry asked about.
func Focus(target, text string) string {
	source := target
	if strings.TrimSpace(source) == "" {
		source = text
	}
	var focus string
	for _, t := range textnorm.Tokens(source, 3, focusStopWords) {
		if len(t) > len(focus) {
			focus = t
		}
	}
	return focus
}

func usedForSubject(text string) string {
	normalized := textnorm.Normalize(text)
	for _, p := range usedForPatterns {
		if m := p.FindStringSubmatch(normalized); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func matchingNames(entries []store.CatalogEntry, keys []string) []store.CatalogEntry {
	out := make([]store.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		name := textnorm.Normalize(e.Name)
		for _, k := range keys {
			k = textnorm.Normalize(k)
			if k != "" && strings.Contains(name, k) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
