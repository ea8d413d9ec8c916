package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/internal/repository/contract"
	"med-agent-be/pkg/embedding"
	"med-agent-be/pkg/store"

	"golang.org/x/sync/errgroup"
)

const module = "CATALOG"

// ErrIndexUnavailable is returned when the index could not be queried even
// after one rebuild from the dataset.
var ErrIndexUnavailable = errors.New("catalog index unavailable")

const (
	defaultSearchK   = 5
	defaultListK     = 100
	maxListedNames   = 25
	defaultLambda    = 0.5
	embedConcurrency = 8
)

type Option func(*Service)

// WithLambda sets the MMR trade-off between relevance (1) and diversity (0).
func WithLambda(l float64) Option {
	return func(s *Service) { s.lambda = l }
}

// Service answers semantic catalog queries over a CatalogIndex, rebuilding
// the index from its Source when it turns out to be missing.
type Service struct {
	index    contract.CatalogIndex
	embedder embedding.EmbeddingProvider
	source   Source
	logger   logger.ILogger
	lambda   float64

	rebuildMu sync.Mutex
}

func NewService(index contract.CatalogIndex, embedder embedding.EmbeddingProvider, source Source, log logger.ILogger, opts ...Option) *Service {
	s := &Service{
		index:    index,
		embedder: embedder,
		source:   source,
		logger:   log,
		lambda:   defaultLambda,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns up to k diverse entries nearest to query. Transport failures
// yield an empty list and no error.
func (s *Service) Search(ctx context.Context, query string, k int) ([]store.CatalogEntry, error) {
	if k <= 0 {
		k = defaultSearchK
	}
	fetchK := 4 * k
	if fetchK < 10 {
		fetchK = 10
	}

	vec, hits, err := s.retrieve(ctx, query, fetchK)
	if err != nil || len(hits) == 0 {
		return nil, err
	}

	selected := selectMMR(vec, hits, k, s.lambda)
	out := make([]store.CatalogEntry, len(selected))
	for i, h := range selected {
		out[i] = h.Entry
		out[i].Score = float32(h.Similarity)
	}
	return out, nil
}

// ListByField returns distinct entry names whose value for field contains
// value or any synonym, case-insensitively. At most k candidates are scanned
// and at most 25 names returned.
func (s *Service) ListByField(ctx context.Context, field store.CatalogField, value string, synonyms []string, k int) ([]string, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("unknown catalog field %q", field)
	}
	if k <= 0 {
		k = defaultListK
	}
	fetchK := 4 * k
	if fetchK < 20 {
		fetchK = 20
	}

	var targets []string
	for _, t := range append([]string{value}, synonyms...) {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}

	vec, hits, err := s.retrieve(ctx, field.Label()+": "+value, fetchK)
	if err != nil || len(hits) == 0 {
		return nil, err
	}

	var names []string
	seen := make(map[string]struct{})
	for _, h := range selectMMR(vec, hits, k, s.lambda) {
		fieldValue := strings.ToLower(h.Entry.Field(field))
		if !containsAny(fieldValue, targets) {
			continue
		}
		name := strings.TrimSpace(h.Entry.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
		if len(names) >= maxListedNames {
			break
		}
	}
	return names, nil
}

// retrieve embeds text and queries the index, rebuilding it once when it is
// missing. A nil error with no hits means the backend was unreachable.
func (s *Service) retrieve(ctx context.Context, text string, limit int) ([]float32, []*contract.ScoredCatalogDocument, error) {
	resp, err := s.embedder.Generate(ctx, text, embedding.TaskQuery)
	if err != nil {
		s.logger.Warn(module, "Query embedding failed", map[string]interface{}{"error": err.Error()})
		return nil, nil, nil
	}
	vec := resp.Embedding.Values

	hits, err := s.index.Query(ctx, vec, limit)
	if errors.Is(err, contract.ErrIndexMissing) {
		s.logger.Warn(module, "Catalog index missing, rebuilding", map[string]interface{}{"error": err.Error()})
		if rerr := s.Rebuild(ctx); rerr != nil {
			if errors.Is(rerr, contract.ErrIndexTransport) {
				s.logger.Warn(module, "Catalog backend unreachable during rebuild", map[string]interface{}{"error": rerr.Error()})
				return nil, nil, nil
			}
			return nil, nil, fmt.Errorf("%w: rebuild: %v", ErrIndexUnavailable, rerr)
		}
		hits, err = s.index.Query(ctx, vec, limit)
	}

	switch {
	case err == nil:
		return vec, hits, nil
	case errors.Is(err, contract.ErrIndexTransport):
		s.logger.Warn(module, "Catalog backend unreachable", map[string]interface{}{"error": err.Error()})
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
}

// Rebuild reloads the source, embeds every entry and replaces the index.
func (s *Service) Rebuild(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	entries, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog source: %w", err)
	}

	docs := make([]contract.CatalogDocument, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i := range entries {
		g.Go(func() error {
			resp, err := s.embedder.Generate(gctx, entries[i].Content, embedding.TaskDocument)
			if err != nil {
				return fmt.Errorf("embed %s: %w", entries[i].ID, err)
			}
			docs[i] = contract.CatalogDocument{Entry: entries[i], Embedding: resp.Embedding.Values}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.index.Rebuild(ctx, docs); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	s.logger.Info(module, "Catalog index rebuilt", map[string]interface{}{"entries": len(docs)})
	return nil
}

// EnsureIndex rebuilds only when the index is missing or empty.
func (s *Service) EnsureIndex(ctx context.Context) error {
	count, err := s.index.Count(ctx)
	if err == nil && count > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, contract.ErrIndexMissing) {
		return err
	}
	return s.Rebuild(ctx)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
