package memory

import (
	"context"
	"sync"
)

// IdentityStore is an in-memory implementation of session.IdentityStore.
// It is the default when no external store is configured and stands in
// for the browser's local storage in tests.
type IdentityStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{values: make(map[string]string)}
}

func (s *IdentityStore) Load(_ context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[name]
	if value == "" {
		return "", false, nil
	}
	return value, ok, nil
}

func (s *IdentityStore) Store(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.values, name)
		return nil
	}
	s.values[name] = value
	return nil
}
