package bootstrap

import (
	"log"

	"med-agent-be/internal/config"
	"med-agent-be/pkg/database"

	"gorm.io/gorm"
)

// OpenDatabase connects to Postgres when the catalog index is configured to
// live there. It returns nil when no database is needed.
func OpenDatabase(cfg *config.Config) *gorm.DB {
	if cfg.Catalog.IndexBackend != "pgvector" {
		return nil
	}
	if cfg.Database.Connection == "" {
		log.Printf("[WARN] CATALOG_INDEX_BACKEND=pgvector but DB_CONNECTION_STRING is empty")
		return nil
	}

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	return gormDB
}
