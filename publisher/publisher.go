// Package publisher announces event changes to other services.
package publisher

import (
	"context"

	"github.com/Tharoon321/go-events-api/models"
)

const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// Change describes one successful mutation.
type Change struct {
	Type  string       `json:"type"`
	Event models.Event `json:"event"`
	At    string       `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

// Nop discards every change.
type Nop struct{}

func (Nop) Publish(context.Context, Change) error { return nil }
