// Package sqlite implements the WorldStore contract on SQLite. Worlds are
// stored whole, one compressed snapshot per row; the serialization
// round-trip doubles as the copy-in/copy-out boundary the contract requires.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/whitlocke/intrigue/internal/store"
	"github.com/whitlocke/intrigue/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS worlds (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	snapshot   BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// WorldStore implements store.WorldStore using SQLite.
type WorldStore struct {
	db *sql.DB
}

// NewWorldStore opens (or creates) a SQLite database at the given DSN and
// ensures the schema exists.
func NewWorldStore(dsn string) (*WorldStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors when a background
	// compaction save races a foreground turn save.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode lets readers proceed without blocking the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &WorldStore{db: db}, nil
}

// Get loads and decodes the world snapshot. Decoding yields a fresh
// aggregate, satisfying the copy-on-read contract.
func (s *WorldStore) Get(ctx context.Context, id string) (*types.World, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT snapshot FROM worlds WHERE id = ?", id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load world %q: %w", id, err)
	}
	return store.DecodeSnapshot(blob)
}

// Save encodes the world and upserts its snapshot row. The encoded form is
// independent of the caller's copy, satisfying the copy-on-write contract.
func (s *WorldStore) Save(ctx context.Context, world *types.World) error {
	if world == nil || world.ID == "" {
		return fmt.Errorf("sqlite: world with an id is required")
	}
	blob, err := store.EncodeSnapshot(world)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO worlds (id, name, snapshot, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, world.ID, world.Name, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlite: failed to save world %q: %w", world.ID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *WorldStore) Close() error { return s.db.Close() }
