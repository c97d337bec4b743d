package utils

import (
	"time"

	"github.com/Tharoon321/go-events-api/models"
)

// ISOTimestamp formats t as UTC ISO-8601 with millisecond precision.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// NextEventID returns the creation time in Unix milliseconds, bumped past the
// largest id already stored so ids stay unique and increasing.
func NextEventID(now time.Time, existing []models.Event) int64 {
	id := now.UnixMilli()
	for _, e := range existing {
		if e.ID >= id {
			id = e.ID + 1
		}
	}
	return id
}
