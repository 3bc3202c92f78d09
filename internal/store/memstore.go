package store

import (
	"sync"

	"github.com/heysubinoy/keyval/pkg/kv"
)

// MemStore is an in-memory implementation of the kv.Store interface.
// It uses a map protected by a RWMutex for thread-safe operations.
// Nothing is persisted; it backs the "memory" backend and tests.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// Compile-time check to ensure MemStore implements kv.Store.
var _ kv.Store = (*MemStore)(nil)

// NewMemStore creates and returns a new MemStore instance.
func NewMemStore() *MemStore {
	return &MemStore{
		data: make(map[string]string),
	}
}

// Get retrieves a value by key from the store.
func (s *MemStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return val, nil
}

// Set stores a key-value pair in the store.
// Always returns nil for in-memory operations.
func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return nil
}

func (s *MemStore) Count() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.data)), nil
}

// SizeBytes reports the total length of keys and values held.
func (s *MemStore) SizeBytes() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for k, v := range s.data {
		n += int64(len(k) + len(v))
	}
	return n, nil
}

func (s *MemStore) Close() error { return nil }
