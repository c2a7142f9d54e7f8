package memory

import (
	"context"
	"sync"
)

// InMemoryStorage keeps values in process memory; used by tests and one-shot clients.
type InMemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{values: make(map[string]string)}
}

func (s *InMemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *InMemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *InMemoryStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *InMemoryStorage) Close() error { return nil }
