package handler

import (
	"context"
	"net/url"
	"sync"

	"med-agent-be/pkg/ai/decision"
	"med-agent-be/pkg/classifier"
	"med-agent-be/pkg/fetch"
	"med-agent-be/pkg/store"
)

const (
	outletsURL = "https://feed.test/getLocales"
	onDutyURL  = "https://feed.test/getLocalesTurnos"
)

type fakeFetcher struct {
	mu       sync.Mutex
	payloads map[string]any
	calls    map[string]int
}

func newFakeFetcher(outlets, onDuty []map[string]any) *fakeFetcher {
	toAny := func(rows []map[string]any) []any {
		out := make([]any, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return out
	}
	f := &fakeFetcher{payloads: map[string]any{}, calls: map[string]int{}}
	if outlets != nil {
		f.payloads[outletsURL] = toAny(outlets)
	}
	if onDuty != nil {
		f.payloads[onDutyURL] = map[string]any{"data": toAny(onDuty)}
	}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, primaryURL, alternateURL string, params url.Values) fetch.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[primaryURL]++
	p, ok := f.payloads[primaryURL]
	if !ok {
		return fetch.Result{Payload: fetch.EmptyPayload(), Exhausted: true}
	}
	return fetch.Result{Payload: p, Tier: fetch.TierPrimary}
}

func (f *fakeFetcher) count(u string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[u]
}

func feedConfig() FeedConfig {
	return FeedConfig{OutletsURL: outletsURL, OnDutyURL: onDutyURL}
}

func row(name, locality, address string) map[string]any {
	return map[string]any{
		"local_nombre":    name,
		"comuna_nombre":   locality,
		"local_direccion": address,
	}
}

type fakeClassifier struct {
	intent     classifier.CatalogIntent
	intentErr  error
	aliases    map[string][]string
	translated []string
}

func (f *fakeClassifier) Gate(ctx context.Context, text string) (classifier.GateVerdict, error) {
	return classifier.GateVerdict{}, nil
}

func (f *fakeClassifier) Route(ctx context.Context, text string) (decision.RouteDecision, error) {
	return decision.RouteDecision{}, nil
}

func (f *fakeClassifier) CatalogIntent(ctx context.Context, text string) (classifier.CatalogIntent, error) {
	return f.intent, f.intentErr
}

func (f *fakeClassifier) Translate(ctx context.Context, term string) ([]string, error) {
	f.translated = append(f.translated, term)
	return f.aliases[term], nil
}

type searchCall struct {
	query string
	k     int
}

type listCall struct {
	field    store.CatalogField
	value    string
	synonyms []string
	k        int
}

type fakeSearcher struct {
	results  map[string][]store.CatalogEntry
	names    []string
	err      error
	searches []searchCall
	lists    []listCall
}

func (f *fakeSearcher) Search(ctx context.Context, query string, k int) ([]store.CatalogEntry, error) {
	f.searches = append(f.searches, searchCall{query: query, k: k})
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeSearcher) ListByField(ctx context.Context, field store.CatalogField, value string, synonyms []string, k int) ([]string, error) {
	f.lists = append(f.lists, listCall{field: field, value: value, synonyms: synonyms, k: k})
	if f.err != nil {
		return nil, f.err
	}
	return f.names, nil
}

func strPtr(s string) *string { return &s }
