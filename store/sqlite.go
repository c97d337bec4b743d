package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Tharoon321/go-events-api/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	position INTEGER PRIMARY KEY,
	id INTEGER NOT NULL,
	event_name TEXT NOT NULL,
	date TEXT NOT NULL,
	location TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	user_id TEXT NOT NULL,
	created_at TEXT NOT NULL
);`

// SQLiteStore keeps the sequence in an events table ordered by position.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create events table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_name, date, location, description, tags, user_id, created_at
		 FROM events ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			e    models.Event
			tags string
		)
		if err := rows.Scan(&e.ID, &e.EventName, &e.Date, &e.Location, &e.Description, &tags, &e.UserID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
			return nil, fmt.Errorf("%w: tags of event %d: %v", ErrCorrupt, e.ID, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return normalize(events), nil
}

// Save replaces the table content in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, events []models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (position, id, event_name, date, location, description, tags, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range normalize(events) {
		tags, err := json.Marshal(e.Tags)
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, i, e.ID, e.EventName, e.Date, e.Location, e.Description, string(tags), e.UserID, e.CreatedAt); err != nil {
			return fmt.Errorf("insert event %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}
