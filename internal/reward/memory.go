package reward

import (
	"context"
	"sync"
)

// MemoryStore keeps reward state in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// GetRewardState returns the user's reward state, or a fresh one.
func (m *MemoryStore) GetRewardState(_ context.Context, userID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[userID]
	if !ok {
		return State{Level: 1}, nil
	}
	return st, nil
}

// ApplyAward folds a into the user's reward state.
func (m *MemoryStore) ApplyAward(_ context.Context, userID string, a Award) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.states[userID].Apply(a)
	m.states[userID] = st
	return st, nil
}
