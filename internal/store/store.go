// Package store defines the persistence contract for the world aggregate
// and provides the in-memory reference implementation.
//
// The contract is copy-in/copy-out: every Get returns an isolated deep copy
// of the stored world, and every Save keeps a deep copy of what it was
// given, so a caller mutating its in-hand world can never be observed by
// another caller until it explicitly saves. This discipline is the engine's
// only concurrency-control mechanism. It prevents aliasing bugs but gives no
// serializability guarantee: concurrent get → mutate → save cycles on the
// same world race and the last save wins. Callers needing stronger
// guarantees must layer versioning or locking on top; the documented
// behavior here is last-write-wins.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/whitlocke/intrigue/pkg/types"
)

// ErrNotFound is returned by Get when no world with the given ID exists.
var ErrNotFound = errors.New("world not found")

// WorldStore persists and retrieves world aggregates.
type WorldStore interface {
	// Get retrieves an isolated copy of the world by ID.
	// Returns ErrNotFound if the world doesn't exist.
	Get(ctx context.Context, id string) (*types.World, error)

	// Save stores the world (upsert semantics). The store keeps its own
	// copy; the caller may keep mutating the argument afterwards.
	Save(ctx context.Context, world *types.World) error

	// Close releases any resources held by the store.
	Close() error
}

// MemoryStore is the in-memory WorldStore. Suitable for tests and for
// single-process play where durability is not needed.
type MemoryStore struct {
	mu     sync.RWMutex
	worlds map[string]*types.World
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{worlds: make(map[string]*types.World)}
}

// Get returns a deep copy of the stored world.
func (s *MemoryStore) Get(ctx context.Context, id string) (*types.World, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.worlds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return w.Clone(), nil
}

// Save stores a deep copy of the world.
func (s *MemoryStore) Save(ctx context.Context, world *types.World) error {
	if world == nil || world.ID == "" {
		return errors.New("store: world with an id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worlds[world.ID] = world.Clone()
	return nil
}

// Close implements WorldStore. It is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
