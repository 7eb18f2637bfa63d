package store

import (
	"context"
	"sync"
)

// SessionStore is the durable key/value capability the delivery tracker
// persists its state through. Implementations must treat a missing key as
// (value "", found false), not as an error.
type SessionStore interface {
	// Get returns the stored value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error
}

// MemoryStore is an in-process SessionStore. It backs isolated tests and is
// the default when no external store is configured; state does not survive
// a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (ms *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	value, ok := ms.values[key]
	return value, ok, nil
}

func (ms *MemoryStore) Set(_ context.Context, key string, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.values[key] = value
	return nil
}
