package snapshot

import (
	"context"
	"sync"

	"github.com/okian/featured/internal/domain/usage"
)

// MemoryStore keeps snapshots in process.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]usage.Snapshot
	puts int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]usage.Snapshot)}
}

// Put implements Store.
func (m *MemoryStore) Put(ctx context.Context, environment string, s usage.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return wrap("snapshot.memory.put", ErrPersist, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[environment] = normalize(s)
	m.puts++
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, environment string) (usage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return usage.Snapshot{}, wrap("snapshot.memory.get", ErrRead, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.docs[environment]
	if !ok {
		return usage.Snapshot{}, ErrNotFound
	}
	return normalize(s), nil
}

// Puts returns the number of successful writes.
func (m *MemoryStore) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}
