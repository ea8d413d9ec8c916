package contract

import (
	"context"
	"errors"

	"med-agent-be/pkg/store"
)

var (
	// ErrIndexMissing means the backing index has not been materialized or was
	// removed out of band. A rebuild can fix it.
	ErrIndexMissing = errors.New("catalog index does not exist")
	// ErrIndexTransport means the backend could not be reached at all.
	ErrIndexTransport = errors.New("catalog index unreachable")
)

// CatalogDocument is one entry plus the embedding of its content.
type CatalogDocument struct {
	Entry     store.CatalogEntry
	Embedding []float32
}

// ScoredCatalogDocument is a query hit. Similarity is cosine similarity in
// [-1, 1]; Embedding is returned so callers can diversify results.
type ScoredCatalogDocument struct {
	CatalogDocument
	Similarity float64
}

type CatalogIndex interface {
	// Query returns up to limit nearest neighbours of vector, most similar
	// first. Returns ErrIndexMissing or ErrIndexTransport where applicable.
	Query(ctx context.Context, vector []float32, limit int) ([]*ScoredCatalogDocument, error)
	// Rebuild drops whatever is stored and upserts docs keyed by entry ID.
	Rebuild(ctx context.Context, docs []CatalogDocument) error
	Count(ctx context.Context) (int64, error)
}
