// Package cache provides the process-wide keyed stores backing the price
// and rate fetchers.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	storedAt time.Time
	value    V
}

// Store is a mutex-guarded key-value store. With a zero TTL entries live for
// the process lifetime and are only replaced by later writes for the same
// key; a positive TTL makes Get treat older entries as absent.
type Store[V any] struct {
	ttl time.Duration

	mu    sync.RWMutex
	items map[string]entry[V]
}

// New creates a Store. ttl <= 0 disables expiry.
func New[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{ttl: ttl, items: make(map[string]entry[V])}
}

// Get returns the value stored under key and whether it is present and fresh.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if s.ttl > 0 && time.Since(e.storedAt) >= s.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// StoredAt reports when the entry under key was last written.
func (s *Store[V]) StoredAt(key string) (time.Time, bool) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}
	return e.storedAt, true
}

// Set stores value under key, replacing any previous entry.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	s.items[key] = entry[V]{storedAt: time.Now(), value: value}
	s.mu.Unlock()
}

// Clear drops every entry.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	s.items = make(map[string]entry[V])
	s.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
