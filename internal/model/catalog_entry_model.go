package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type CatalogEntry struct {
	Id             string            `gorm:"type:text;primaryKey"`
	Name           string            `gorm:"type:text;not null;index"`
	Fields         datatypes.JSONMap `gorm:"type:jsonb"`
	Content        string            `gorm:"type:text"`
	EmbeddingValue pgvector.Vector   `gorm:"type:vector"`
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime"`
}

func (CatalogEntry) TableName() string {
	return "catalog_entries"
}
