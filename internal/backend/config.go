package backend

import (
	"errors"
	"fmt"

	"orca/internal/config"
)

// Config is the subset of the application config a backend needs.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	RedisURL     string
	DatabaseURL  string
}

// FromAppConfig picks the preference settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	c := Config{
		Type:         BackendType(appConfig.PrefsBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		RedisURL:     appConfig.RedisURL,
		DatabaseURL:  appConfig.DatabaseURL,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks that the settings the selected backend depends on are set.
func (c Config) Validate() error {
	var missing string
	switch c.Type {
	case MemoryBackend:
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			missing = "SQLITE_DB_PATH"
		}
	case RedisBackend:
		if c.RedisURL == "" {
			missing = "REDIS_URL"
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			missing = "DATABASE_URL"
		}
	default:
		return fmt.Errorf("invalid backend type %q: must be one of %v", c.Type, GetBackendTypeStrings())
	}
	if missing != "" {
		return fmt.Errorf("%s is required for the %s backend", missing, c.Type)
	}
	return nil
}

func GetBackendTypeStrings() []string {
	out := make([]string, len(backendTypes))
	for i, t := range backendTypes {
		out[i] = t.String()
	}
	return out
}
