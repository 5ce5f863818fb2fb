package memory

import (
	"context"
	"sync"

	"github.com/user/scamshield-agent/internal/repository"
)

// LocalStorageImpl is a process-local LocalStorage. Values do not survive a restart.
type LocalStorageImpl struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewLocalStorage creates an empty in-memory store.
func NewLocalStorage() *LocalStorageImpl {
	return &LocalStorageImpl{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (s *LocalStorageImpl) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (s *LocalStorageImpl) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key.
func (s *LocalStorageImpl) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Ping always succeeds.
func (s *LocalStorageImpl) Ping(context.Context) error {
	return nil
}
