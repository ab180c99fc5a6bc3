// Package postgres implements the WorldStore contract on PostgreSQL, for
// deployments where the world must survive the host. Snapshot layout matches
// the SQLite store: one compressed snapshot per world row.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/whitlocke/intrigue/internal/store"
	"github.com/whitlocke/intrigue/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS worlds (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	snapshot   BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// WorldStore implements store.WorldStore using PostgreSQL.
type WorldStore struct {
	db *sql.DB
}

// NewWorldStore connects to PostgreSQL with the given DSN and ensures the
// schema exists.
func NewWorldStore(dsn string) (*WorldStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return &WorldStore{db: db}, nil
}

// Get loads and decodes the world snapshot.
func (s *WorldStore) Get(ctx context.Context, id string) (*types.World, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT snapshot FROM worlds WHERE id = $1", id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load world %q: %w", id, err)
	}
	return store.DecodeSnapshot(blob)
}

// Save encodes the world and upserts its snapshot row.
func (s *WorldStore) Save(ctx context.Context, world *types.World) error {
	if world == nil || world.ID == "" {
		return fmt.Errorf("postgres: world with an id is required")
	}
	blob, err := store.EncodeSnapshot(world)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO worlds (id, name, snapshot, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			snapshot = EXCLUDED.snapshot,
			updated_at = EXCLUDED.updated_at
	`, world.ID, world.Name, blob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres: failed to save world %q: %w", world.ID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *WorldStore) Close() error { return s.db.Close() }
