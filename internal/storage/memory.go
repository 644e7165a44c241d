// Package storage implements the preference stores that remember small
// per-session values, such as the selected budget, across restarts.
package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps preferences in process memory. Values are lost on
// restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, session, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[session][key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, session, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[session] == nil {
		m.values[session] = make(map[string]string)
	}
	m.values[session][key] = value
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
