package main

import (
	"sync"
)

// NameStore persists display names keyed by user id. The in-memory
// implementation is the in-process default; a durable key-value backend
// can be swapped in behind the same contract.
type NameStore interface {
	Get(userID string) (string, error)
	Set(userID, name string) error
}

type memoryNameStore struct {
	mu    sync.RWMutex
	names map[string]string
}

func newMemoryNameStore() *memoryNameStore {
	return &memoryNameStore{
		names: make(map[string]string),
	}
}

func (s *memoryNameStore) Get(userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.names[userID], nil
}

func (s *memoryNameStore) Set(userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names[userID] = name

	return nil
}
