// Package store holds entities of one type in process memory and answers
// keyword queries against them.
//
// A Store is built from a Schema, the closed table of fields an entity
// exposes. Queries name fields from that table; each field declares whether
// it matches by equality or, for list fields, by membership. Updates are
// patches: only supplied, non-nil values of declared fields are written.
//
// Absence is never an error. Get reports it through its boolean result and
// Filter through an empty slice; callers decide whether absence is a
// not-found outcome.
package store

import (
	"slices"
	"sync"
)

// Store is an in-memory collection of T with sequential ids starting at 1.
// It is safe for concurrent use. Entities are copied in and out, so the
// only way to change a stored entity is Update.
type Store[T any] struct {
	schema *Schema[T]

	mu     sync.RWMutex
	items  []*T
	lastID uint64
}

// New returns an empty store for the given schema.
func New[T any](schema *Schema[T]) *Store[T] {
	return &Store[T]{schema: schema}
}

// Schema returns the field table of the store.
func (s *Store[T]) Schema() *Schema[T] { return s.schema }

// Create assigns the next id to v, appends it and returns the stored copy.
// Any id already set on v is overwritten.
func (s *Store[T]) Create(v T) T {
	e := s.schema.copy(v)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	*s.schema.id(&e) = s.lastID
	s.items = append(s.items, &e)
	return s.schema.copy(e)
}

// Get returns the first entity, in insertion order, matching every
// criterion. ok is false when nothing matches.
func (s *Store[T]) Get(c Criteria) (v T, ok bool, err error) {
	match, err := s.schema.Compile(c)
	if err != nil {
		return v, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.items {
		if match(e) {
			return s.schema.copy(*e), true, nil
		}
	}
	return v, false, nil
}

// Filter returns every entity matching the criteria in insertion order.
// Empty criteria return the whole collection.
func (s *Store[T]) Filter(c Criteria) ([]T, error) {
	match, err := s.schema.Compile(c)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.items))
	for _, e := range s.items {
		if match(e) {
			out = append(out, s.schema.copy(*e))
		}
	}
	return out, nil
}

// Update applies p to the entity with the given id and returns the result.
// A value of the wrong type fails the whole patch and nothing is written.
// ok is false when no entity has that id.
func (s *Store[T]) Update(id uint64, p Patch) (v T, ok bool, err error) {
	apply, err := s.schema.compilePatch(p)
	if err != nil {
		return v, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return v, false, nil
	}
	next := s.schema.copy(*s.items[i])
	apply(&next)
	*s.schema.id(&next) = id
	s.items[i] = &next
	return s.schema.copy(next), true, nil
}

// Delete removes the entity with the given id. It reports whether an entity
// was removed; deleting an absent id is a no-op.
func (s *Store[T]) Delete(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

// All returns every entity in insertion order.
func (s *Store[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, s.schema.copy(*e))
	}
	return out
}

// Clear drops every entity. Ids keep counting from where they were.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Len returns the number of stored entities.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// indexOf must be called with mu held.
func (s *Store[T]) indexOf(id uint64) int {
	for i, e := range s.items {
		if *s.schema.id(e) == id {
			return i
		}
	}
	return -1
}
