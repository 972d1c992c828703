package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/adapters/vectorstore"
	"github.com/mikey/llm-compliance-filter/internal/config"
	"github.com/mikey/llm-compliance-filter/internal/core"
)

// StoreFactory creates example stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateExampleStore creates an example store based on the configuration
func (f *StoreFactory) CreateExampleStore(embedder core.EmbeddingClient) (core.ExampleStore, error) {
	storeCfg := f.cfg.GetStore()

	switch storeCfg.Type {
	case "memory":
		return vectorstore.NewMemoryStore(embedder, f.logger)
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return vectorstore.NewSQLiteStore(storeCfg.SQLitePath, embedder, f.logger)
	case "mysql":
		return vectorstore.NewMySQLStore(storeCfg.MySQLDSN, embedder, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}
