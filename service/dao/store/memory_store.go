package store

import (
	"context"
	"sort"
	"sync"

	"github.com/viant/jobqueue/service/dao"
	"golang.org/x/exp/constraints"
)

// MemoryStore is a generic in-memory implementation of dao.Service keyed by
// an ordered id. Records are cloned on the way in and out so callers never
// share memory with the store; mutation goes through Update.
type MemoryStore[K constraints.Ordered, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	keySelector func(*T) K
	clone       func(*T) *T
}

// NewMemoryStore creates a new MemoryStore.
// keySelector extracts the entity key from a value; clone copies a value.
func NewMemoryStore[K constraints.Ordered, T any](keySelector func(*T) K, clone func(*T) *T) *MemoryStore[K, T] {
	return &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
		clone:       clone,
	}
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = s.clone(v)
	return nil
}

// Load returns a copy of the record or dao.ErrNotFound.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return s.clone(v), nil
}

// Delete removes a record; deleting an absent key is not an error.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// List returns copies of all records in ascending key order.
func (s *MemoryStore[K, T]) List(_ context.Context, _ ...*dao.Parameter) ([]*T, error) {
	return s.Select(func(*T) bool { return true }), nil
}

// Select returns copies of the records accepted by filter, ascending key order.
func (s *MemoryStore[K, T]) Select(filter func(*T) bool) []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, key := range s.sortedKeys() {
		v := s.records[key]
		if filter(v) {
			out = append(out, s.clone(v))
		}
	}
	return out
}

// Update applies fn to the stored record under the write lock. fn may return
// an error to abort; the record is mutated in place, so fn must validate
// before changing anything.
func (s *MemoryStore[K, T]) Update(key K, fn func(*T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[key]
	if !ok {
		return dao.ErrNotFound
	}
	return fn(v)
}

// Has returns true if key is stored.
func (s *MemoryStore[K, T]) Has(key K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok
}

// Len returns the number of records.
func (s *MemoryStore[K, T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore[K, T]) sortedKeys() []K {
	keys := make([]K, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
