package game

import (
	"context"
	"fmt"

	"github.com/whitlocke/intrigue/internal/bus"
	"github.com/whitlocke/intrigue/internal/memory"
	"github.com/whitlocke/intrigue/pkg/types"
)

// MoveHandler relocates characters along location connections, narrating the
// move into the episodic memory of everyone who saw it happen.
type MoveHandler struct {
	bus    *bus.EventBus
	memory *memory.Service
}

// NewMoveHandler creates a move handler publishing to the given bus.
func NewMoveHandler(b *bus.EventBus, mem *memory.Service) *MoveHandler {
	return &MoveHandler{bus: b, memory: mem}
}

// Execute moves the character to the target location. The target must exist
// and be connected to the character's current location; moving to the
// current location is a silent no-op. Witnesses in the departure and arrival
// locations each get one observation line, the mover gets a movement line,
// and a character-moved event is published after the mutation.
func (h *MoveHandler) Execute(ctx context.Context, cmd MoveCharacterCommand, world *types.World) error {
	character, ok := world.Characters[cmd.CharacterID]
	if !ok {
		return validationErrorf("character %q not found", cmd.CharacterID)
	}

	from := character.LocationID
	if from == cmd.TargetLocationID {
		return nil
	}

	target, ok := world.Locations[cmd.TargetLocationID]
	if !ok {
		return validationErrorf("location %q not found", cmd.TargetLocationID)
	}
	current, ok := world.Locations[from]
	if !ok {
		return validationErrorf("character %q is in unknown location %q", cmd.CharacterID, from)
	}
	if !current.ConnectsTo(cmd.TargetLocationID) {
		return validationErrorf("no passage from %q to %q", from, cmd.TargetLocationID)
	}

	// Witnesses at the departure side observe before the move happens.
	stamp := world.Clock.String()
	for _, witness := range world.CharactersAt(from, character.ID) {
		witness.Remember(fmt.Sprintf("[%s] I saw %s leave %s.", stamp, character.Name, current.Name))
	}

	character.LocationID = cmd.TargetLocationID
	character.Remember(fmt.Sprintf("[%s] I went from %s to %s.", stamp, current.Name, target.Name))

	for _, witness := range world.CharactersAt(cmd.TargetLocationID, character.ID) {
		witness.Remember(fmt.Sprintf("[%s] I saw %s arrive at %s.", stamp, character.Name, target.Name))
	}

	h.bus.Publish(ctx, types.CharacterMoved{
		EventMeta:      types.NewEventMeta(),
		CharacterID:    character.ID,
		FromLocationID: from,
		ToLocationID:   cmd.TargetLocationID,
	}, world)

	if h.memory != nil {
		h.memory.CompressIfNeeded(world, character)
		for _, witness := range world.CharactersAt(from, character.ID) {
			h.memory.CompressIfNeeded(world, witness)
		}
		for _, witness := range world.CharactersAt(cmd.TargetLocationID, character.ID) {
			h.memory.CompressIfNeeded(world, witness)
		}
	}
	return nil
}
