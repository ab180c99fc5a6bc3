package game

import (
	"context"
	"fmt"

	"github.com/whitlocke/intrigue/internal/bus"
	"github.com/whitlocke/intrigue/internal/memory"
	"github.com/whitlocke/intrigue/pkg/types"
)

// ExamineHandler lets the player inspect objects and discover the clues
// attached to them. Discovery is idempotent: a clue found once is marked and
// never yields a second knowledge grant or event.
type ExamineHandler struct {
	bus    *bus.EventBus
	memory *memory.Service
}

// NewExamineHandler creates an examine handler publishing to the given bus.
func NewExamineHandler(b *bus.EventBus, mem *memory.Service) *ExamineHandler {
	return &ExamineHandler{bus: b, memory: mem}
}

// Execute examines an object in the player's current location. Every clue
// not yet found is marked found, its fact granted to the player at full
// certainty, and a fact-discovered event published. The returned clues are
// copies of the newly discovered ones, in the order they appear on the
// object; an empty slice means the object held nothing new, which still
// leaves a "found nothing new" line in the player's memory.
func (h *ExamineHandler) Execute(ctx context.Context, cmd ExamineObjectCommand, world *types.World) ([]types.Clue, error) {
	player, ok := world.Characters[cmd.PlayerID]
	if !ok {
		return nil, validationErrorf("character %q not found", cmd.PlayerID)
	}
	if player.LocationID != cmd.LocationID {
		return nil, validationErrorf("%q is not in location %q", cmd.PlayerID, cmd.LocationID)
	}
	location, ok := world.Locations[cmd.LocationID]
	if !ok {
		return nil, validationErrorf("location %q not found", cmd.LocationID)
	}
	object := location.Object(cmd.ObjectID)
	if object == nil {
		return nil, validationErrorf("no object %q in %q", cmd.ObjectID, cmd.LocationID)
	}

	stamp := world.Clock.String()
	var discovered []types.Clue
	var events []types.FactDiscovered

	for i := range object.Clues {
		clue := &object.Clues[i]
		if clue.IsFound {
			continue
		}
		fact, ok := world.Facts[clue.FactID]
		if !ok {
			// Scenario referenced a fact that was never loaded; skip rather
			// than grant knowledge of nothing.
			continue
		}

		clue.IsFound = true
		player.Learn(fact.ID, 1.0)
		player.Remember(fmt.Sprintf("[%s] Examining the %s, I discovered: %s", stamp, object.Name, clue.Description))

		discovered = append(discovered, *clue)
		events = append(events, types.FactDiscovered{
			EventMeta:   types.NewEventMeta(),
			CharacterID: player.ID,
			FactID:      fact.ID,
			LocationID:  location.ID,
			Source:      fmt.Sprintf("examining the %s", object.Name),
		})
	}

	if len(discovered) == 0 {
		player.Remember(fmt.Sprintf("[%s] I examined the %s but found nothing new.", stamp, object.Name))
	}

	for _, ev := range events {
		h.bus.Publish(ctx, ev, world)
	}
	if h.memory != nil {
		h.memory.CompressIfNeeded(world, player)
	}
	return discovered, nil
}
