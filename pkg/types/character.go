package types

// KnowledgeEntry records that a character knows a fact and with what
// certainty. Presence of the key in Character.Knowledge means "known";
// absence means "unknown", regardless of certainty value.
type KnowledgeEntry struct {
	FactID    FactID  `json:"fact_id"`
	Certainty float64 `json:"certainty"`
}

// Relationship captures one character's one-way feelings towards another.
type Relationship struct {
	TargetID CharacterID `json:"target_id"`
	Affinity float64     `json:"affinity"` // -1.0 (hate) .. 1.0 (love)
	Trust    float64     `json:"trust"`    // 0.0 .. 1.0
}

// ScheduleEntry is one slot in an NPC's daily routine. Trigger times match
// the world clock exactly; no range matching is performed.
type ScheduleEntry struct {
	Time       string `json:"time"`        // "HH:MM"
	ActionType string `json:"action_type"` // "move" is the only action with defined behavior
	Target     string `json:"target,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Character is an agent in the world, player or NPC.
//
// Knowledge is the character's semantic memory: structured, fact-keyed
// recall. NarrativeMemory is its episodic memory: an ordered, append-mostly
// log of free-text experiences. The compaction pipeline may replace a prefix
// of NarrativeMemory with a single summary line; nothing else removes
// entries.
type Character struct {
	ID          CharacterID `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	LocationID  LocationID  `json:"location_id"`

	Knowledge       map[FactID]KnowledgeEntry    `json:"knowledge,omitempty"`
	NarrativeMemory []string                     `json:"narrative_memory,omitempty"`
	Relationships   map[CharacterID]Relationship `json:"relationships,omitempty"`
	EmotionalState  map[string]float64           `json:"emotional_state,omitempty"`
	Goals           []string                     `json:"goals,omitempty"`
	Schedule        []ScheduleEntry              `json:"schedule,omitempty"`
}

// Knows reports whether the character holds a knowledge entry for the fact.
func (c *Character) Knows(id FactID) bool {
	_, ok := c.Knowledge[id]
	return ok
}

// Learn grants the character a knowledge entry for the fact. It is
// idempotent: an already-known fact is left untouched and Learn reports
// false so callers can skip duplicate "learned" log lines.
func (c *Character) Learn(id FactID, certainty float64) bool {
	if c.Knows(id) {
		return false
	}
	if c.Knowledge == nil {
		c.Knowledge = make(map[FactID]KnowledgeEntry)
	}
	c.Knowledge[id] = KnowledgeEntry{FactID: id, Certainty: certainty}
	return true
}

// Remember appends a line to the character's episodic memory.
func (c *Character) Remember(line string) {
	c.NarrativeMemory = append(c.NarrativeMemory, line)
}
