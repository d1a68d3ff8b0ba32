// Package kv provides a generic thread-safe key-value store with an optional
// size bound.
package kv

import "sync"

// Store is a thread-safe generic key-value store. When a capacity is set the
// oldest inserted key is evicted once the store is full.
type Store[K comparable, V any] struct {
	mu    sync.RWMutex
	data  map[K]V
	order []K
	limit int
}

// NewBounded creates a store holding at most limit entries. A limit of zero
// or less means unbounded.
func NewBounded[K comparable, V any](limit int) *Store[K, V] {
	return &Store[K, V]{
		data:  make(map[K]V),
		limit: limit,
	}
}

// Get retrieves a value by key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

// Set stores a value by key.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(key, value)
}

// GetOrLoad returns the cached value for key if keep reports it is still
// valid, otherwise it calls load and caches the result. Errors from load are
// not cached.
func (s *Store[K, V]) GetOrLoad(key K, keep func(V) bool, load func() (V, error)) (V, error) {
	if val, ok := s.Get(key); ok && (keep == nil || keep(val)) {
		return val, nil
	}

	val, err := load()
	if err != nil {
		return val, err
	}

	s.Set(key, val)
	return val, nil
}

func (s *Store[K, V]) set(key K, value V) {
	if _, exists := s.data[key]; !exists {
		if s.limit > 0 && len(s.data) >= s.limit {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.data, oldest)
		}
		s.order = append(s.order, key)
	}
	s.data[key] = value
}
