// Package game implements the command handlers that drive the world: move,
// examine, talk, end-dialogue, accuse, and the NPC behavior scheduler.
//
// Handlers follow the caller-owned-world convention: the driver fetches a
// world copy from the store, passes it in, and commits it back after the
// turn. Handlers validate first and mutate only after every check has
// passed, so a returned ValidationError always means an untouched world.
package game

import "github.com/whitlocke/intrigue/pkg/types"

// MoveCharacterCommand asks to move a character to a connected location.
type MoveCharacterCommand struct {
	WorldID          string
	CharacterID      types.CharacterID
	TargetLocationID types.LocationID
}

// TalkToCharacterCommand opens or continues a dialogue session.
// Message may be empty on the opening turn: the session is created but no
// utterance or generation happens. SessionID may be empty or stale, in
// which case a fresh session is created.
type TalkToCharacterCommand struct {
	WorldID    string
	SpeakerID  types.CharacterID
	ListenerID types.CharacterID
	Message    string
	SessionID  string
}

// EndDialogueCommand closes a dialogue session, folding its history into
// both participants' narrative memory. Ending an absent or already-inactive
// session is a no-op, not an error.
type EndDialogueCommand struct {
	WorldID   string
	SessionID string
}

// ExamineObjectCommand has the player examine an object in their current
// location, discovering any clues not yet found.
type ExamineObjectCommand struct {
	WorldID    string
	PlayerID   types.CharacterID
	ObjectID   string
	LocationID types.LocationID
}

// AccuseCharacterCommand renders the endgame verdict. It never mutates the
// world.
type AccuseCharacterCommand struct {
	WorldID            string
	PlayerID           types.CharacterID
	AccusedCharacterID types.CharacterID
}
