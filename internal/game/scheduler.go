package game

import (
	"context"
	"log"
	"sort"

	"github.com/whitlocke/intrigue/pkg/types"
)

// DefaultTickMinutes is how far the world clock advances per player turn.
const DefaultTickMinutes = 10

// Scheduler advances the world clock and runs NPC routines. Schedule entries
// trigger on exact clock equality, so the tick increment should divide the
// scenario's schedule times.
type Scheduler struct {
	move        *MoveHandler
	tickMinutes int
}

// NewScheduler creates a scheduler that moves NPCs through the given handler.
func NewScheduler(move *MoveHandler, tickMinutes int) *Scheduler {
	if tickMinutes <= 0 {
		tickMinutes = DefaultTickMinutes
	}
	return &Scheduler{move: move, tickMinutes: tickMinutes}
}

// AdvanceClock moves the world clock forward one tick, wrapping past
// midnight.
func (s *Scheduler) AdvanceClock(world *types.World) {
	world.Clock = world.Clock.Add(s.tickMinutes)
}

// RunScheduledBehaviors executes due schedule entries for every non-player
// character. At most one entry fires per character per call: the first whose
// time equals the current clock. Only the "move" action has behavior; other
// action types are recorded in the scenario but inert here. A failing move
// is logged and skipped so one stuck NPC cannot stall the rest.
func (s *Scheduler) RunScheduledBehaviors(ctx context.Context, world *types.World) {
	ids := make([]types.CharacterID, 0, len(world.Characters))
	for id := range world.Characters {
		if id != world.PlayerID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		character := world.Characters[id]
		entry, ok := dueEntry(character.Schedule, world.Clock)
		if !ok {
			continue
		}

		switch entry.ActionType {
		case "move":
			cmd := MoveCharacterCommand{
				WorldID:          world.ID,
				CharacterID:      character.ID,
				TargetLocationID: entry.Target,
			}
			if err := s.move.Execute(ctx, cmd, world); err != nil {
				log.Printf("WARNING: scheduled move for %s to %q failed: %v", character.ID, entry.Target, err)
			}
		default:
			log.Printf("scheduler: %s has scheduled action %q at %s, no behavior defined", character.ID, entry.ActionType, world.Clock)
		}
	}
}

// dueEntry returns the first schedule entry whose time matches now exactly.
// Entries with unparseable times are skipped.
func dueEntry(schedule []types.ScheduleEntry, now types.GameTime) (types.ScheduleEntry, bool) {
	for _, entry := range schedule {
		at, err := types.ParseGameTime(entry.Time)
		if err != nil {
			log.Printf("WARNING: skipping schedule entry with bad time %q: %v", entry.Time, err)
			continue
		}
		if at == now {
			return entry, true
		}
	}
	return types.ScheduleEntry{}, false
}
