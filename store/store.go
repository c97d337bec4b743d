// Package store persists the ordered event sequence. Every backend loads and
// saves the whole sequence at once.
package store

import (
	"context"
	"errors"

	"github.com/Tharoon321/go-events-api/models"
)

// ErrCorrupt is returned by Load when persisted data cannot be decoded.
var ErrCorrupt = errors.New("store: corrupt data")

// Store loads and saves the full ordered event sequence.
type Store interface {
	Load(ctx context.Context) ([]models.Event, error)
	Save(ctx context.Context, events []models.Event) error
}

func normalize(events []models.Event) []models.Event {
	if events == nil {
		return []models.Event{}
	}
	for i := range events {
		if events[i].Tags == nil {
			events[i].Tags = []string{}
		}
	}
	return events
}
