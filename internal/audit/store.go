// Package audit journals applied booking transitions to Postgres.
package audit

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Migrations holds the journal schema.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations holding the SQL files.
const MigrationsDir = "migrations"

// Entry is one journal row. It never holds names or phone numbers.
type Entry struct {
	SessionID  string    `db:"session_id"`
	EventKind  string    `db:"event_kind"`
	Token      string    `db:"token"`
	FromState  string    `db:"from_state"`
	ToState    string    `db:"to_state"`
	OccurredAt time.Time `db:"occurred_at"`
}

// Store persists journal entries.
type Store interface {
	Insert(ctx context.Context, entries []Entry) error
}

const insertEntry = `
	INSERT INTO booking_transitions (session_id, event_kind, token, from_state, to_state, occurred_at)
	VALUES (:session_id, :event_kind, :token, :from_state, :to_state, :occurred_at)`

// SQLStore writes entries with sqlx.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps db.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Insert writes entries in a single batch statement.
func (s *SQLStore) Insert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if _, err := s.db.NamedExecContext(ctx, insertEntry, entries); err != nil {
		return fmt.Errorf("insert transitions: %w", err)
	}
	return nil
}
