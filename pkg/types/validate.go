package types

import "fmt"

// Validate checks the aggregate's structural invariants: the player must be
// a known character, every character must stand in a known location, every
// knowledge certainty must be in [0,1], and every active session must
// reference known characters. Loaders call this once after building a world;
// handlers assume it holds.
func (w *World) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("world has no id")
	}
	if _, ok := w.Characters[w.PlayerID]; !ok {
		return fmt.Errorf("player %q is not a character in world %q", w.PlayerID, w.ID)
	}
	for id, c := range w.Characters {
		if _, ok := w.Locations[c.LocationID]; !ok {
			return fmt.Errorf("character %q is in unknown location %q", id, c.LocationID)
		}
		for factID, entry := range c.Knowledge {
			if entry.Certainty < 0 || entry.Certainty > 1 {
				return fmt.Errorf("character %q knowledge of %q has certainty %v outside [0,1]",
					id, factID, entry.Certainty)
			}
		}
	}
	for sessionID, s := range w.ActiveSessions {
		for _, p := range s.Participants {
			if _, ok := w.Characters[p]; !ok {
				return fmt.Errorf("session %q references unknown character %q", sessionID, p)
			}
		}
	}
	return nil
}
