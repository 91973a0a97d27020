package artifact

import (
	"context"
	"sync"
)

// InMemory implements Store with in-process concurrency safety. Used by
// tests and by deployments that do not need persistence.
type InMemory struct {
	mu      sync.RWMutex
	records []Metadata
	index   map[string]int
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{index: make(map[string]int)}
}

var _ Store = (*InMemory)(nil)

func (s *InMemory) Append(ctx context.Context, m Metadata) error {
	if err := validate(m); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[m.ID]; ok {
		return ErrDuplicateID
	}
	s.index[m.ID] = len(s.records)
	s.records = append(s.records, m)
	return nil
}

func (s *InMemory) Get(ctx context.Context, id string) (Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Metadata{}, ErrNotFound
	}
	return s.records[i], nil
}

func (s *InMemory) List(ctx context.Context) ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Metadata, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *InMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.records); j++ {
		s.index[s.records[j].ID] = j
	}
	return nil
}
