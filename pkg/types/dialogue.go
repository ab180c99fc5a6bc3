package types

// DialogueReplica is a single utterance inside a dialogue session.
type DialogueReplica struct {
	SpeakerID CharacterID `json:"speaker_id"`
	Message   string      `json:"message"`
	SpokenAt  GameTime    `json:"spoken_at"`
}

// DialogueSession is a bounded multi-turn exchange between exactly two
// characters, tracked separately from the characters' permanent memory.
// Lifecycle: created on the first talk without a usable session ID, active
// while referenced, ended explicitly (or implicitly superseded by a
// non-talk player action). Ending folds the history into both participants'
// narrative memory and drops the session from the world's active map.
type DialogueSession struct {
	ID           string            `json:"id"`
	Participants [2]CharacterID    `json:"participants"`
	History      []DialogueReplica `json:"history,omitempty"`
	IsActive     bool              `json:"is_active"`
}

// HasParticipant reports whether the character takes part in the session.
func (s *DialogueSession) HasParticipant(id CharacterID) bool {
	return s.Participants[0] == id || s.Participants[1] == id
}

// Append records an utterance at the given clock value.
func (s *DialogueSession) Append(speaker CharacterID, message string, at GameTime) {
	s.History = append(s.History, DialogueReplica{
		SpeakerID: speaker,
		Message:   message,
		SpokenAt:  at,
	})
}
