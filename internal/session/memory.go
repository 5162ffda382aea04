package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and single-node setups.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]int)}
}

// Lookup implements Store.
func (s *MemoryStore) Lookup(_ context.Context, sessionID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.sessions[sessionID]
	return accountID, ok, nil
}

// Set binds a session id to an account.
func (s *MemoryStore) Set(sessionID string, accountID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = accountID
}

// Delete forgets a session.
func (s *MemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
