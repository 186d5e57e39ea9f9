package dataset

import (
	"context"
	"fmt"
	"sync"

	"github.com/c360/resultflow/errors"
)

// MemoryStore is an in-process Store for tests and single-process runs. It
// records broadcast mode per key so tests can assert on propagation behavior.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]any
	broadcast map[string]bool
}

// NewMemoryStore creates an empty in-memory dataset store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]any),
		broadcast: make(map[string]bool),
	}
}

// SetDataset creates or overwrites an entry
func (m *MemoryStore) SetDataset(_ context.Context, key string, value any, broadcast bool) error {
	if key == "" {
		return errors.WrapUsage(errors.ErrInvalidConfig, "MemoryStore", "SetDataset", "empty key")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.broadcast[key] = broadcast
	return nil
}

// AppendToDataset appends a value to an existing array entry
func (m *MemoryStore) AppendToDataset(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.entries[key]
	if !ok {
		return errors.WrapStorage(
			fmt.Errorf("append to %q: %w", key, errors.ErrKeyNotFound),
			"MemoryStore", "AppendToDataset", "entry lookup")
	}

	arr, ok := current.([]any)
	if !ok {
		return errors.WrapStorage(
			fmt.Errorf("entry %q is not an array", key),
			"MemoryStore", "AppendToDataset", "entry type check")
	}

	m.entries[key] = append(arr, value)
	return nil
}

// GetDataset reads an entry back
func (m *MemoryStore) GetDataset(_ context.Context, key string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	if !ok {
		return nil, errors.WrapStorage(
			fmt.Errorf("get %q: %w", key, errors.ErrKeyNotFound),
			"MemoryStore", "GetDataset", "entry lookup")
	}
	return value, nil
}

// IsBroadcast reports the broadcast mode recorded for a key
func (m *MemoryStore) IsBroadcast(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.broadcast[key]
}

// Keys returns all keys currently in the store
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	return keys
}

var _ Store = (*MemoryStore)(nil)
