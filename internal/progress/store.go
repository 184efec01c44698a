package progress

import (
	"context"
	"fmt"
	"sync"
)

// SessionStore keeps learner state between requests of one session.
type SessionStore interface {
	// Load returns the state for id, or a fresh state when none exists.
	Load(ctx context.Context, id string) (*LearnerState, error)
	Save(ctx context.Context, state *LearnerState) error
}

// MemoryStore is an in-memory implementation of SessionStore.
type MemoryStore struct {
	states map[string]*LearnerState
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*LearnerState),
	}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*LearnerState, error) {
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[id]
	if !ok {
		return NewLearnerState(id), nil
	}
	return state.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, state *LearnerState) error {
	if state == nil || state.ID == "" {
		return fmt.Errorf("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.ID] = state.Clone()
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
