package game

import (
	"context"
	"sync"

	"github.com/whitlocke/intrigue/internal/bus"
	"github.com/whitlocke/intrigue/internal/llm"
	"github.com/whitlocke/intrigue/internal/memory"
	"github.com/whitlocke/intrigue/internal/store"
	"github.com/whitlocke/intrigue/pkg/types"
)

// testWorld builds a small manor: hall <-> study, hall -> garden (one way).
// The detective and Sophie start in the hall, Marc in the study. The study
// desk hides a clue for fact1; Sophie is the culprit and proving it takes
// fact1 and fact2.
func testWorld() *types.World {
	return &types.World{
		ID:       "manor",
		Name:     "Blackwood Manor",
		PlayerID: "player",
		Locations: map[types.LocationID]*types.Location{
			"hall": {
				ID: "hall", Name: "Grand Hall",
				Connections: []types.LocationID{"study", "garden"},
			},
			"study": {
				ID: "study", Name: "Study",
				Connections: []types.LocationID{"hall"},
				Objects: []types.GameObject{
					{
						ID: "desk", Name: "mahogany desk",
						Clues: []types.Clue{
							{FactID: "fact1", Description: "a half-burned letter", Difficulty: 0.3},
						},
					},
					{ID: "globe", Name: "globe"},
				},
			},
			"garden": {ID: "garden", Name: "Garden"},
		},
		Characters: map[types.CharacterID]*types.Character{
			"player": {ID: "player", Name: "Detective", LocationID: "hall"},
			"sophie": {ID: "sophie", Name: "Sophie", LocationID: "hall"},
			"marc":   {ID: "marc", Name: "Marc", LocationID: "study"},
		},
		Facts: map[types.FactID]*types.Fact{
			"fact1": {ID: "fact1", Content: "the letter was burned at midnight", IsSecret: true},
			"fact2": {ID: "fact2", Content: "Sophie owns a silver lighter", IsSecret: true},
		},
		Clock:    mustTime("09:00"),
		Solution: &types.Solution{KillerID: "sophie", RequiredFactIDs: []types.FactID{"fact1", "fact2"}},
	}
}

func mustTime(s string) types.GameTime {
	t, err := types.ParseGameTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

// eventRecorder subscribes to everything and keeps what it saw.
type eventRecorder struct {
	mu     sync.Mutex
	events []types.Event
}

func recordEvents(b *bus.EventBus) *eventRecorder {
	r := &eventRecorder{}
	b.Subscribe(types.KindAny, func(ctx context.Context, e types.Event, w *types.World) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
		return nil
	})
	return r
}

func (r *eventRecorder) kinds() []types.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind()
	}
	return out
}

func newTestMemory() *memory.Service {
	return memory.NewService(store.NewMemoryStore(), llm.NewMockService())
}
