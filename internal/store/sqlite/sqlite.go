// Package sqlite is the single-file ListStore backend. Changes are announced
// through an in-process hub, so subscribers must live in the same process.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/dispenser/internal/store"
	"github.com/MrSnakeDoc/dispenser/internal/utils"
)

var _ store.Backend = (*Store)(nil)

// Store keeps prompt lists, cooldown slots and settings in SQLite.
type Store struct {
	db  *sql.DB
	hub *store.Hub
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer keeps last-writer-wins simple and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		utils.Close(db)
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}

	return &Store{db: db, hub: store.NewHub()}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prompt_lists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			all_prompts TEXT NOT NULL,
			used_prompts TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_prompt_lists_name ON prompt_lists(name)`,
		`CREATE TABLE IF NOT EXISTS cooldowns (
			list_id TEXT PRIMARY KEY,
			end_ms INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func affectedOrNotFound(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
