package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/mail-triage/internal/adapters/store"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates triage stores based on configuration
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

// CreateTriageStore creates a triage store based on the configuration
func (f *StoreFactory) CreateTriageStore() (core.TriageStore, error) {
	storeType := f.cfg.GetString("store.type")
	cleanupFreq, err := f.cfg.GetDuration("store.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid store cleanup frequency: %w", err)
	}
	retention := time.Duration(f.cfg.GetInt("store.retention_days")) * 24 * time.Hour

	switch storeType {
	case "memory":
		return store.NewMemoryStore(f.logger, cleanupFreq, retention), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("store.sqlite_path")
		if sqlitePath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to resolve home directory for store: %w", err)
			}
			sqlitePath = filepath.Join(home, ".mail-triage", "triage.db")
		}
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		return store.NewSQLiteStore(sqlitePath, f.logger, cleanupFreq, retention)
	case "mysql":
		mysqlDSN := f.cfg.GetString("store.mysql_dsn")
		return store.NewMySQLStore(mysqlDSN, f.logger, cleanupFreq, retention)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
