package implementation

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"med-agent-be/internal/mapper"
	"med-agent-be/internal/model"
	"med-agent-be/internal/repository/contract"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// undefinedTable is the Postgres SQLSTATE for a missing relation.
const undefinedTable = "42P01"

const rebuildBatchSize = 100

type CatalogIndexImpl struct {
	db     *gorm.DB
	mapper *mapper.CatalogMapper
}

func NewCatalogIndex(db *gorm.DB) contract.CatalogIndex {
	return &CatalogIndexImpl{
		db:     db,
		mapper: mapper.NewCatalogMapper(),
	}
}

func (r *CatalogIndexImpl) Query(ctx context.Context, vector []float32, limit int) ([]*contract.ScoredCatalogDocument, error) {
	if limit <= 0 {
		limit = 10
	}

	// Cosine distance in pgvector is 1 - cosine_similarity
	type result struct {
		model.CatalogEntry
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)
	err := r.db.WithContext(ctx).
		Table(model.CatalogEntry{}.TableName()).
		Select("catalog_entries.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Order(gorm.Expr("embedding_value <=> ?", queryVector)).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, classify(err)
	}

	if len(results) == 0 {
		count, err := r.Count(ctx)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, contract.ErrIndexMissing
		}
	}

	docs := make([]*contract.ScoredCatalogDocument, len(results))
	for i := range results {
		docs[i] = &contract.ScoredCatalogDocument{
			CatalogDocument: r.mapper.ToDocument(&results[i].CatalogEntry),
			Similarity:      results[i].Similarity,
		}
	}
	return docs, nil
}

func (r *CatalogIndexImpl) Rebuild(ctx context.Context, docs []contract.CatalogDocument) error {
	models := make([]*model.CatalogEntry, len(docs))
	for i, d := range docs {
		models[i] = r.mapper.ToModel(d)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("enable pgvector: %w", err)
		}
		if err := tx.AutoMigrate(&model.CatalogEntry{}); err != nil {
			return fmt.Errorf("migrate catalog table: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.CatalogEntry{}).Error; err != nil {
			return fmt.Errorf("clear catalog table: %w", err)
		}
		if len(models) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(models, rebuildBatchSize).Error
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func (r *CatalogIndexImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.CatalogEntry{}).Count(&count).Error; err != nil {
		return 0, classify(err)
	}
	return count, nil
}

// classify maps driver errors onto the index sentinels so callers can tell a
// missing table from an unreachable server.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%w: %s", contract.ErrIndexMissing, pgErr.Message)
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", contract.ErrIndexTransport, err)
	}
	return err
}
