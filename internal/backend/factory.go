package backend

import (
	"context"
	"fmt"

	"orca/internal/log"
	"orca/internal/storage"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store PreferenceStore
		err   error
	)
	switch config.Type {
	case MemoryBackend:
		store = storage.NewMemoryStore()
	case SQLiteBackend:
		var sqlite *storage.SQLiteStore
		if sqlite, err = storage.NewSQLiteStore(config.SQLiteDBPath); err == nil {
			store = sqlite
			f.logger.Info("Initialized SQLite preferences",
				"db_path", config.SQLiteDBPath,
				"schema_version", sqlite.SchemaVersion())
		}
	case RedisBackend:
		store, err = storage.NewRedisStore(ctx, config.RedisURL)
		if err == nil {
			f.logger.Info("Initialized Redis preferences")
		}
	case PostgresBackend:
		store, err = storage.NewPostgresStore(ctx, config.DatabaseURL)
		if err == nil {
			f.logger.Info("Initialized Postgres preferences")
		}
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s preferences: %w", config.Type, err)
	}

	if !config.Type.Durable() {
		f.logger.Warn("Preferences are not durable; selected budgets reset on restart")
	}
	return &BackendResult{Prefs: store, Cleanup: store.Close}, nil
}
