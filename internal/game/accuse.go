package game

import (
	"context"
	"fmt"

	"github.com/whitlocke/intrigue/pkg/types"
)

// AccuseHandler renders the endgame verdict. It reads the world's solution
// and the player's knowledge and never mutates either.
type AccuseHandler struct{}

// NewAccuseHandler creates an accuse handler.
func NewAccuseHandler() *AccuseHandler {
	return &AccuseHandler{}
}

// AccusationResult is the verdict: whether the case is solved, whether the
// accusation ends the game, and the narration to show the player. IsCorrect
// is true only when the accused is the culprit AND the player holds every
// required fact. A world without a solution yields a neutral result with
// GameOver false: the accusation fizzles and play continues.
type AccusationResult struct {
	IsCorrect      bool           `json:"is_correct"`
	GameOver       bool           `json:"game_over"`
	Message        string         `json:"message"`
	MissingFactIDs []types.FactID `json:"missing_fact_ids,omitempty"`
}

// Execute evaluates an accusation against the scenario solution. Accusing
// the right character without holding all required facts fails: suspicion
// is not proof.
func (h *AccuseHandler) Execute(ctx context.Context, cmd AccuseCharacterCommand, world *types.World) (*AccusationResult, error) {
	player, ok := world.Characters[cmd.PlayerID]
	if !ok {
		return nil, validationErrorf("character %q not found", cmd.PlayerID)
	}
	accused, ok := world.Characters[cmd.AccusedCharacterID]
	if !ok {
		return nil, validationErrorf("character %q not found", cmd.AccusedCharacterID)
	}

	if world.Solution == nil {
		return &AccusationResult{
			IsCorrect: false,
			Message:   "This mystery has no defined solution. The game continues...",
		}, nil
	}

	if accused.ID != world.Solution.KillerID {
		return &AccusationResult{
			IsCorrect: false,
			GameOver:  true,
			Message:   fmt.Sprintf("You accuse %s, but you are wrong. The real killer has gotten away. You lose.", accused.Name),
		}, nil
	}

	var missing []types.FactID
	for _, id := range world.Solution.RequiredFactIDs {
		if !player.Knows(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &AccusationResult{
			IsCorrect: false,
			GameOver:  true,
			Message: fmt.Sprintf("You correctly identified %s as the killer, but you lack the evidence to prove it! "+
				"You needed to find %d more piece(s) of evidence. The case is dismissed. You lose.", accused.Name, len(missing)),
			MissingFactIDs: missing,
		}, nil
	}

	return &AccusationResult{
		IsCorrect: true,
		GameOver:  true,
		Message:   fmt.Sprintf("You confront %s with the evidence. They confess to everything! You have solved the case. You win!", accused.Name),
	}, nil
}
