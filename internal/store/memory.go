package store

import (
	"context"
	"sync"

	"github.com/toumakido/my-claude/todod/internal/model"
)

// MemoryStore is an in-memory implementation of Store. Records are kept
// encoded, the same way the Redis backend keeps them.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
	}
}

// Put stores todo under id
func (s *MemoryStore) Put(ctx context.Context, id string, todo model.Todo) error {
	b, err := encode(todo)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = b
	return nil
}

// PutRaw stores b under id without encoding it.
func (s *MemoryStore) PutRaw(id string, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = append([]byte(nil), b...)
}

// GetAll returns all todos
func (s *MemoryStore) GetAll(ctx context.Context) ([]model.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]model.Todo, 0, len(s.records))
	for id, b := range s.records {
		todo, err := decode(id, b)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, nil
}

// Get returns a todo by ID
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Todo, bool, error) {
	s.mu.RLock()
	b, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return model.Todo{}, false, nil
	}
	todo, err := decode(id, b)
	if err != nil {
		return model.Todo{}, false, err
	}
	return todo, true, nil
}

// Delete deletes a todo by ID
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// DeleteAll drops every record
func (s *MemoryStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.records)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
