package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitlocke/intrigue/pkg/types"
)

func TestAccuse_WrongCharacter(t *testing.T) {
	h := NewAccuseHandler()
	w := testWorld()
	w.Characters["player"].Learn("fact1", 1.0)
	w.Characters["player"].Learn("fact2", 1.0)

	res, err := h.Execute(context.Background(), AccuseCharacterCommand{
		WorldID: "manor", PlayerID: "player", AccusedCharacterID: "marc",
	}, w)
	require.NoError(t, err)
	assert.False(t, res.IsCorrect, "full evidence against the wrong person still fails")
	assert.True(t, res.GameOver)
	assert.Contains(t, res.Message, "Marc")
}

func TestAccuse_RightCharacterWithoutProof(t *testing.T) {
	h := NewAccuseHandler()
	w := testWorld()
	w.Characters["player"].Learn("fact1", 1.0) // fact2 still missing

	res, err := h.Execute(context.Background(), AccuseCharacterCommand{
		WorldID: "manor", PlayerID: "player", AccusedCharacterID: "sophie",
	}, w)
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.True(t, res.GameOver)
	assert.Equal(t, []types.FactID{"fact2"}, res.MissingFactIDs)
	assert.Contains(t, res.Message, "1 more piece(s) of evidence",
		"the lose message states how many facts are missing")
}

func TestAccuse_RightCharacterWithProof(t *testing.T) {
	h := NewAccuseHandler()
	w := testWorld()
	w.Characters["player"].Learn("fact1", 1.0)
	w.Characters["player"].Learn("fact2", 1.0)

	res, err := h.Execute(context.Background(), AccuseCharacterCommand{
		WorldID: "manor", PlayerID: "player", AccusedCharacterID: "sophie",
	}, w)
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.True(t, res.GameOver)
	assert.Empty(t, res.MissingFactIDs)
}

func TestAccuse_NoSolutionIsNeutral(t *testing.T) {
	h := NewAccuseHandler()
	w := testWorld()
	w.Solution = nil

	res, err := h.Execute(context.Background(), AccuseCharacterCommand{
		WorldID: "manor", PlayerID: "player", AccusedCharacterID: "sophie",
	}, w)
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.False(t, res.GameOver, "without a solution the accusation fizzles and play continues")
	assert.Contains(t, res.Message, "no defined solution")
}

func TestAccuse_DoesNotMutateWorld(t *testing.T) {
	h := NewAccuseHandler()
	w := testWorld()

	_, err := h.Execute(context.Background(), AccuseCharacterCommand{
		PlayerID: "player", AccusedCharacterID: "sophie",
	}, w)
	require.NoError(t, err)
	assert.Empty(t, w.Characters["player"].NarrativeMemory)
	assert.Empty(t, w.Characters["player"].Knowledge)
}

func TestAccuse_Validation(t *testing.T) {
	h := NewAccuseHandler()

	t.Run("unknown accused", func(t *testing.T) {
		w := testWorld()
		_, err := h.Execute(context.Background(), AccuseCharacterCommand{PlayerID: "player", AccusedCharacterID: "ghost"}, w)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("unknown player", func(t *testing.T) {
		w := testWorld()
		_, err := h.Execute(context.Background(), AccuseCharacterCommand{PlayerID: "ghost", AccusedCharacterID: "sophie"}, w)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}
