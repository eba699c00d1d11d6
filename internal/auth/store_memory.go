package auth

import (
	"context"
	"sync"
)

// NewMemoryStore returns a Store backed by an in-memory map.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// MemoryStore implements Store for tests and throwaway sessions.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	value, ok := s.values[key]
	s.mu.RUnlock()
	return value, ok, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Clear removes every key.
func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	clear(s.values)
	s.mu.Unlock()
	return nil
}

// Len reports how many keys are stored. Useful for tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
