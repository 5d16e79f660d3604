package highlight

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type MemStore struct {
	mu    sync.RWMutex
	items map[string]Highlight
	now   func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{items: make(map[string]Highlight), now: time.Now}
}

func (s *MemStore) Add(_ context.Context, h Highlight) (Highlight, error) {
	h, err := prepare(h, s.now())
	if err != nil {
		return Highlight{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[h.ID]; ok {
		return Highlight{}, fmt.Errorf("%w: %s", ErrDuplicate, h.ID)
	}
	s.items[h.ID] = h
	return h, nil
}

func (s *MemStore) List(_ context.Context) ([]Highlight, error) {
	s.mu.RLock()
	out := make([]Highlight, 0, len(s.items))
	for _, h := range s.items {
		out = append(out, h)
	}
	s.mu.RUnlock()
	sortHighlights(out)
	return out, nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.items, id)
	return nil
}

func (s *MemStore) Close() error { return nil }

var _ Store = (*MemStore)(nil)
