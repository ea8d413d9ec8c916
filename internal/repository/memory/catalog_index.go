package memory

import (
	"context"
	"sort"
	"sync"

	"med-agent-be/internal/repository/contract"
	"med-agent-be/pkg/embedding"
)

// CatalogIndex is a brute-force cosine index for local runs without Postgres.
// It reports ErrIndexMissing until the first Rebuild and after Drop.
type CatalogIndex struct {
	mu    sync.RWMutex
	docs  []contract.CatalogDocument
	built bool
}

var _ contract.CatalogIndex = &CatalogIndex{}

func NewCatalogIndex() *CatalogIndex {
	return &CatalogIndex{}
}

func (c *CatalogIndex) Query(ctx context.Context, vector []float32, limit int) ([]*contract.ScoredCatalogDocument, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.built {
		return nil, contract.ErrIndexMissing
	}
	if limit <= 0 {
		limit = 10
	}

	hits := make([]*contract.ScoredCatalogDocument, 0, len(c.docs))
	for _, d := range c.docs {
		hits = append(hits, &contract.ScoredCatalogDocument{
			CatalogDocument: d,
			Similarity:      embedding.Cosine(vector, d.Embedding),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (c *CatalogIndex) Rebuild(ctx context.Context, docs []contract.CatalogDocument) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	byID := make(map[string]int, len(docs))
	c.docs = make([]contract.CatalogDocument, 0, len(docs))
	for _, d := range docs {
		if i, ok := byID[d.Entry.ID]; ok {
			c.docs[i] = d
			continue
		}
		byID[d.Entry.ID] = len(c.docs)
		c.docs = append(c.docs, d)
	}
	c.built = true
	return nil
}

func (c *CatalogIndex) Count(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.docs)), nil
}

// Drop forgets everything, as if the index were deleted out of band.
func (c *CatalogIndex) Drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = nil
	c.built = false
}
