package types

// Deep copies of the aggregate graph. The store boundary relies on these:
// every Get hands out an isolated copy and every Save keeps one, so no two
// callers ever alias the same World. Cloning by hand (rather than a
// serialization round-trip) keeps the store's hot path cheap and avoids
// surprises with nil-vs-empty maps.

// Clone returns a deep copy of the world and everything reachable from it.
func (w *World) Clone() *World {
	if w == nil {
		return nil
	}
	out := &World{
		ID:       w.ID,
		Name:     w.Name,
		PlayerID: w.PlayerID,
		Clock:    w.Clock,
	}
	if w.Locations != nil {
		out.Locations = make(map[LocationID]*Location, len(w.Locations))
		for id, l := range w.Locations {
			out.Locations[id] = l.Clone()
		}
	}
	if w.Characters != nil {
		out.Characters = make(map[CharacterID]*Character, len(w.Characters))
		for id, c := range w.Characters {
			out.Characters[id] = c.Clone()
		}
	}
	if w.Facts != nil {
		out.Facts = make(map[FactID]*Fact, len(w.Facts))
		for id, f := range w.Facts {
			cp := *f
			out.Facts[id] = &cp
		}
	}
	if w.ActiveSessions != nil {
		out.ActiveSessions = make(map[string]*DialogueSession, len(w.ActiveSessions))
		for id, s := range w.ActiveSessions {
			out.ActiveSessions[id] = s.Clone()
		}
	}
	if w.Solution != nil {
		out.Solution = &Solution{
			KillerID:        w.Solution.KillerID,
			RequiredFactIDs: append([]FactID(nil), w.Solution.RequiredFactIDs...),
		}
	}
	return out
}

// Clone returns a deep copy of the location, its objects, and their clues.
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	out := &Location{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
	}
	if l.Connections != nil {
		out.Connections = append([]LocationID(nil), l.Connections...)
	}
	if l.Properties != nil {
		out.Properties = make(map[string]any, len(l.Properties))
		for k, v := range l.Properties {
			out.Properties[k] = v
		}
	}
	if l.Objects != nil {
		out.Objects = make([]GameObject, len(l.Objects))
		for i, o := range l.Objects {
			out.Objects[i] = GameObject{
				ID:          o.ID,
				Name:        o.Name,
				Description: o.Description,
			}
			if o.Clues != nil {
				out.Objects[i].Clues = append([]Clue(nil), o.Clues...)
			}
		}
	}
	return out
}

// Clone returns a deep copy of the character.
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	out := &Character{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		LocationID:  c.LocationID,
	}
	if c.Knowledge != nil {
		out.Knowledge = make(map[FactID]KnowledgeEntry, len(c.Knowledge))
		for k, v := range c.Knowledge {
			out.Knowledge[k] = v
		}
	}
	if c.NarrativeMemory != nil {
		out.NarrativeMemory = append([]string(nil), c.NarrativeMemory...)
	}
	if c.Relationships != nil {
		out.Relationships = make(map[CharacterID]Relationship, len(c.Relationships))
		for k, v := range c.Relationships {
			out.Relationships[k] = v
		}
	}
	if c.EmotionalState != nil {
		out.EmotionalState = make(map[string]float64, len(c.EmotionalState))
		for k, v := range c.EmotionalState {
			out.EmotionalState[k] = v
		}
	}
	if c.Goals != nil {
		out.Goals = append([]string(nil), c.Goals...)
	}
	if c.Schedule != nil {
		out.Schedule = append([]ScheduleEntry(nil), c.Schedule...)
	}
	return out
}

// Clone returns a deep copy of the session.
func (s *DialogueSession) Clone() *DialogueSession {
	if s == nil {
		return nil
	}
	out := &DialogueSession{
		ID:           s.ID,
		Participants: s.Participants,
		IsActive:     s.IsActive,
	}
	if s.History != nil {
		out.History = append([]DialogueReplica(nil), s.History...)
	}
	return out
}
