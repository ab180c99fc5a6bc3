// Package types defines the game-world aggregate and the domain events that
// flow through the engine. The World is the aggregate root: it is the sole
// unit of persistence and the sole unit of concurrency control. Handlers work
// on a private deep copy obtained from the store and the caller commits the
// result back with Save.
package types

// Identifier aliases keep signatures readable. They are plain strings; the
// store and handlers never interpret their contents.
type (
	CharacterID = string
	LocationID  = string
	FactID      = string
)

// Fact is a statement about the world that characters can come to know.
type Fact struct {
	ID       FactID `json:"id"`
	Content  string `json:"content"`
	IsSecret bool   `json:"is_secret"`
}

// Clue links a discoverable hint on a GameObject to the Fact it reveals.
// Difficulty is carried for scenario authors but discovery is currently
// unconditional once the object is examined. Once IsFound is set,
// re-examination yields nothing: discovery is idempotent.
type Clue struct {
	FactID      FactID  `json:"fact_id"`
	Description string  `json:"description"`
	Difficulty  float64 `json:"difficulty"`
	IsFound     bool    `json:"is_found"`
}

// GameObject is an interactive object within a location. Its ID is unique
// within that location only.
type GameObject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Clues       []Clue `json:"clues,omitempty"`
}

// Location is a place characters can occupy. Connections list the locations
// reachable FROM here; accessibility is directional, not implied by symmetry.
type Location struct {
	ID          LocationID     `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Connections []LocationID   `json:"connections,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Objects     []GameObject   `json:"objects,omitempty"`
}

// Solution is the scenario's answer key: who did it and which facts the
// player must hold to prove it. Immutable once loaded.
type Solution struct {
	KillerID        CharacterID `json:"killer_id"`
	RequiredFactIDs []FactID    `json:"required_fact_ids"`
}

// World is the aggregate root for a running scenario.
type World struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	PlayerID   CharacterID                `json:"player_id"`
	Locations  map[LocationID]*Location   `json:"locations"`
	Characters map[CharacterID]*Character `json:"characters"`
	Facts      map[FactID]*Fact           `json:"facts"`
	Clock      GameTime                   `json:"clock"`

	// ActiveSessions holds the in-flight dialogue sessions keyed by session
	// ID. Sessions are removed when explicitly ended.
	ActiveSessions map[string]*DialogueSession `json:"active_sessions,omitempty"`

	Solution *Solution `json:"solution,omitempty"`
}

// Object returns the object with the given ID in the location, or nil.
func (l *Location) Object(objectID string) *GameObject {
	for i := range l.Objects {
		if l.Objects[i].ID == objectID {
			return &l.Objects[i]
		}
	}
	return nil
}

// ConnectsTo reports whether target is in this location's outgoing
// connection list.
func (l *Location) ConnectsTo(target LocationID) bool {
	for _, id := range l.Connections {
		if id == target {
			return true
		}
	}
	return false
}

// CharactersAt returns the characters currently in the given location,
// excluding the one identified by except (pass "" to exclude nobody).
func (w *World) CharactersAt(locationID LocationID, except CharacterID) []*Character {
	var out []*Character
	for _, c := range w.Characters {
		if c.ID != except && c.LocationID == locationID {
			out = append(out, c)
		}
	}
	return out
}
