package filter

import (
	"context"
	"sync"
)

// MemoryPersister is an in-memory Persister for tests and ephemeral runs.
type MemoryPersister struct {
	mu       sync.Mutex
	sessions map[string]State
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{sessions: make(map[string]State)}
}

func (p *MemoryPersister) Save(_ context.Context, sessionID string, state State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[sessionID] = state.Clone()
	return nil
}

func (p *MemoryPersister) Load(_ context.Context, sessionID string) (State, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.sessions[sessionID]
	if !ok {
		return NewState(), false, nil
	}
	return state.Clone(), true, nil
}

func (p *MemoryPersister) Close() error {
	return nil
}
