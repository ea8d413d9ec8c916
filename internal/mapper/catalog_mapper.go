package mapper

import (
	"fmt"

	"med-agent-be/internal/model"
	"med-agent-be/internal/repository/contract"
	"med-agent-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type CatalogMapper struct{}

func NewCatalogMapper() *CatalogMapper {
	return &CatalogMapper{}
}

func (m *CatalogMapper) ToModel(d contract.CatalogDocument) *model.CatalogEntry {
	fields := datatypes.JSONMap{}
	for k, v := range d.Entry.Fields {
		fields[string(k)] = v
	}
	return &model.CatalogEntry{
		Id:             d.Entry.ID,
		Name:           d.Entry.Name,
		Fields:         fields,
		Content:        d.Entry.Content,
		EmbeddingValue: pgvector.NewVector(d.Embedding),
	}
}

func (m *CatalogMapper) ToDocument(e *model.CatalogEntry) contract.CatalogDocument {
	if e == nil {
		return contract.CatalogDocument{}
	}
	fields := make(map[store.CatalogField]string, len(e.Fields))
	for k, v := range e.Fields {
		if v == nil {
			continue
		}
		fields[store.CatalogField(k)] = fmt.Sprint(v)
	}
	return contract.CatalogDocument{
		Entry: store.CatalogEntry{
			ID:      e.Id,
			Name:    e.Name,
			Fields:  fields,
			Content: e.Content,
		},
		Embedding: e.EmbeddingValue.Slice(),
	}
}
