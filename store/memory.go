package store

import (
	"context"
	"sync"

	"github.com/Tharoon321/go-events-api/models"
)

// MemoryStore holds the sequence in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	events []models.Event
}

func NewMemoryStore(events ...models.Event) *MemoryStore {
	return &MemoryStore{events: clone(events)}
}

func (s *MemoryStore) Load(ctx context.Context) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return normalize(clone(s.events)), nil
}

func (s *MemoryStore) Save(ctx context.Context, events []models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = clone(events)
	return nil
}

func clone(events []models.Event) []models.Event {
	out := make([]models.Event, len(events))
	for i, e := range events {
		if e.Tags != nil {
			e.Tags = append([]string(nil), e.Tags...)
		}
		out[i] = e
	}
	return out
}
