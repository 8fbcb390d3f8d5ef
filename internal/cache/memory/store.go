package memory

import (
	"context"
	"sync"

	"github.com/mcarden/authgate/internal/cache"
)

// Store is an in-memory implementation of the cache interface.
// It does not survive restarts; used for tests and ephemeral runs.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates a new in-memory cache store
func New() *Store {
	return &Store{
		values: make(map[string]string),
	}
}

// Ensure Store implements the interface
var _ cache.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *Store) Close() error {
	return nil
}
