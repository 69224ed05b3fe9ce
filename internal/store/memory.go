package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps collection documents in process memory. Used by tests
// and as a throwaway development backend.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Load returns the stored document for a collection.
func (m *MemoryBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[collection]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save replaces the stored document for a collection.
func (m *MemoryBackend) Save(ctx context.Context, collection string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.data[collection] = stored
	return nil
}
