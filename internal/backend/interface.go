// Package backend selects and builds the preference store configured for
// the server.
package backend

import (
	"context"
	"slices"

	"orca/internal/state"
)

// PreferenceStore is what every backend provides: the state.Preferences
// contract plus a health probe and teardown.
type PreferenceStore interface {
	state.Preferences
	Ping(ctx context.Context) error
	Close() error
}

// BackendResult pairs the store with the function that releases it.
type BackendResult struct {
	Prefs   PreferenceStore
	Cleanup func() error
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	RedisBackend    BackendType = "redis"
	PostgresBackend BackendType = "postgres"
)

// backendTypes is ordered from the simplest to the most infrastructure.
var backendTypes = []BackendType{MemoryBackend, SQLiteBackend, RedisBackend, PostgresBackend}

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool { return slices.Contains(backendTypes, bt) }

// Durable reports whether selections survive a restart.
func (bt BackendType) Durable() bool { return bt != MemoryBackend }
