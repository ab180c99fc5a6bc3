// Package gamelog records the narrative history of a playthrough. A Recorder
// subscribes to every domain event and appends one human-readable line per
// event to a log file, resolving IDs to display names through the world
// context that arrives with the event (or from the store when a publisher
// had no world in hand).
package gamelog

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/whitlocke/intrigue/internal/bus"
	"github.com/whitlocke/intrigue/internal/store"
	"github.com/whitlocke/intrigue/pkg/types"
)

// Recorder writes the game's narrative log.
type Recorder struct {
	mu      sync.Mutex
	out     *os.File
	store   store.WorldStore
	worldID string
}

// NewRecorder opens (truncating) the log file at path. The store and world
// ID provide a fallback world context for events published without one.
func NewRecorder(path string, st store.WorldStore, worldID string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open game log %s: %w", path, err)
	}
	return &Recorder{out: f, store: st, worldID: worldID}, nil
}

// SubscribeTo registers the recorder for every event on the bus.
func (r *Recorder) SubscribeTo(b *bus.EventBus) {
	b.Subscribe(types.KindAny, r.Handle)
}

// Handle renders one event into one log line. It is the bus handler; the
// world argument may be nil.
func (r *Recorder) Handle(ctx context.Context, event types.Event, world *types.World) error {
	if world == nil {
		var err error
		world, err = r.store.Get(ctx, r.worldID)
		if err != nil {
			return fmt.Errorf("game log has no world context for %s: %w", event.Kind(), err)
		}
	}
	line := r.render(event, world)
	if line == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprintln(r.out, line); err != nil {
		return fmt.Errorf("failed to write game log: %w", err)
	}
	return nil
}

// Close flushes and closes the log file.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.out.Close(); err != nil {
		log.Printf("WARNING: failed to close game log: %v", err)
	}
}

func (r *Recorder) render(event types.Event, world *types.World) string {
	stamp := world.Clock.String()
	switch e := event.(type) {
	case types.CharacterMoved:
		return fmt.Sprintf("[%s] MOVED: %s went from %s to %s.",
			stamp, characterName(world, e.CharacterID),
			locationName(world, e.FromLocationID), locationName(world, e.ToLocationID))
	case types.FactDiscovered:
		content := "?"
		if f, ok := world.Facts[e.FactID]; ok {
			content = f.Content
		}
		return fmt.Sprintf("[%s] DISCOVERED: %s learned %q (%s) by %s.",
			stamp, characterName(world, e.CharacterID), content, e.FactID, e.Source)
	case types.DialogueOccurred:
		line := fmt.Sprintf("[%s] DIALOGUE: %s spoke with %s. Reply: %q",
			stamp, characterName(world, e.SpeakerID), characterName(world, e.ListenerID), e.Text)
		if len(e.RevealedFactIDs) > 0 {
			line += fmt.Sprintf(" (revealed: %s)", strings.Join(e.RevealedFactIDs, ", "))
		}
		return line
	case types.DialogueEnded:
		names := make([]string, len(e.Participants))
		for i, id := range e.Participants {
			names[i] = characterName(world, id)
		}
		return fmt.Sprintf("[%s] DIALOGUE ENDED: %s finished talking.", stamp, strings.Join(names, " and "))
	case types.NarrativeRequested:
		return fmt.Sprintf("[%s] NARRATIVE: %s request sent to %s.", stamp, e.Operation, e.Model)
	default:
		return ""
	}
}

func characterName(world *types.World, id types.CharacterID) string {
	if c, ok := world.Characters[id]; ok {
		return c.Name
	}
	return string(id)
}

func locationName(world *types.World, id types.LocationID) string {
	if l, ok := world.Locations[id]; ok {
		return l.Name
	}
	return string(id)
}
