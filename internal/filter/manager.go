package filter

import (
	"context"
	"sync"
)

// Manager hands out one Store per session id, restoring persisted state on
// first access. Stores are never evicted while the process runs; the
// persister is the durable copy.
type Manager struct {
	mu        sync.Mutex
	persister Persister
	stores    map[string]*Store
}

func NewManager(persister Persister) *Manager {
	return &Manager{
		persister: persister,
		stores:    make(map[string]*Store),
	}
}

func (m *Manager) Get(ctx context.Context, sessionID string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[sessionID]; ok {
		return store, nil
	}

	store := NewStore(sessionID, m.persister)
	if err := store.Restore(ctx); err != nil {
		return nil, err
	}
	m.stores[sessionID] = store
	return store, nil
}

func (m *Manager) Close() error {
	return m.persister.Close()
}
