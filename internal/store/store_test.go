package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitlocke/intrigue/pkg/types"
)

func sampleWorld() *types.World {
	return &types.World{
		ID:       "manor",
		Name:     "Harrow Manor",
		PlayerID: "player",
		Clock:    types.DefaultStartTime,
		Locations: map[types.LocationID]*types.Location{
			"hall": {ID: "hall", Name: "Great Hall", Connections: []types.LocationID{"study"}},
		},
		Characters: map[types.CharacterID]*types.Character{
			"player": {ID: "player", Name: "Detective", LocationID: "hall",
				NarrativeMemory: []string{"[08:00] The case began."}},
		},
		Facts: map[types.FactID]*types.Fact{
			"fact1": {ID: "fact1", Content: "The letter was torn."},
		},
	}
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetReturnsIsolatedCopy(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Save(context.Background(), sampleWorld()))

	a, err := s.Get(context.Background(), "manor")
	require.NoError(t, err)
	b, err := s.Get(context.Background(), "manor")
	require.NoError(t, err)

	a.Characters["player"].LocationID = "study"
	a.Characters["player"].Remember("[08:10] I wandered off.")

	// b was fetched independently and must not see a's mutations.
	assert.Equal(t, types.LocationID("hall"), b.Characters["player"].LocationID)
	assert.Len(t, b.Characters["player"].NarrativeMemory, 1)
}

func TestMemoryStore_SaveKeepsOwnCopy(t *testing.T) {
	s := NewMemoryStore()
	w := sampleWorld()
	require.NoError(t, s.Save(context.Background(), w))

	// Mutating the caller's world after Save must not leak into the store.
	w.Characters["player"].LocationID = "study"

	got, err := s.Get(context.Background(), "manor")
	require.NoError(t, err)
	assert.Equal(t, types.LocationID("hall"), got.Characters["player"].LocationID)
}

func TestMemoryStore_LastWriteWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleWorld()))

	// Two independent get → mutate → save cycles. The second save clobbers
	// the first; this is the documented store behavior.
	a, _ := s.Get(ctx, "manor")
	b, _ := s.Get(ctx, "manor")
	a.Characters["player"].Remember("[08:10] Copy A was here.")
	b.Characters["player"].Remember("[08:10] Copy B was here.")
	require.NoError(t, s.Save(ctx, a))
	require.NoError(t, s.Save(ctx, b))

	got, err := s.Get(ctx, "manor")
	require.NoError(t, err)
	require.Len(t, got.Characters["player"].NarrativeMemory, 2)
	assert.Equal(t, "[08:10] Copy B was here.", got.Characters["player"].NarrativeMemory[1])
}

func TestMemoryStore_SaveRequiresID(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.Save(context.Background(), &types.World{}))
	assert.Error(t, s.Save(context.Background(), nil))
}

func TestSnapshotRoundTrip(t *testing.T) {
	w := sampleWorld()
	w.ActiveSessions = map[string]*types.DialogueSession{
		"s1": {ID: "s1", Participants: [2]types.CharacterID{"player", "player"}, IsActive: true},
	}

	blob, err := EncodeSnapshot(w)
	require.NoError(t, err)

	got, err := DecodeSnapshot(blob)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, w.Clock, got.Clock)
	assert.Equal(t, w.Characters["player"].NarrativeMemory, got.Characters["player"].NarrativeMemory)
	assert.True(t, got.ActiveSessions["s1"].IsActive)

	// A decoded snapshot must not alias the source.
	got.Characters["player"].LocationID = "study"
	assert.Equal(t, types.LocationID("hall"), w.Characters["player"].LocationID)
}

func TestDecodeSnapshot_Garbage(t *testing.T) {
	_, err := DecodeSnapshot([]byte("not a snapshot"))
	assert.Error(t, err)
}
