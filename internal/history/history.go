// Package history records generated prompts and images in SQLite.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one prompt, optionally with the image rendered from it.
type Entry struct {
	ID          string    `json:"id"`
	Recording   string    `json:"recording,omitempty"`
	Prompt      string    `json:"prompt"`
	Descriptors string    `json:"descriptors,omitempty"` // JSON-encoded descriptor set
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// One writer at a time; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores e. ID and Prompt are required; a zero CreatedAt is set to now.
func (s *Store) Add(ctx context.Context, e Entry) error {
	if e.ID == "" || e.Prompt == "" {
		return errors.New("history entry needs an id and a prompt")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Descriptors == "" {
		e.Descriptors = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (id, recording, prompt, descriptors, image, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Recording, e.Prompt, e.Descriptors, e.Image, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recording, prompt, descriptors, image, created_at
		FROM generations
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.Recording, &e.Prompt, &e.Descriptors, &e.Image, &created); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.CreatedAt = time.Unix(0, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
