package types

import (
	"time"

	"github.com/google/uuid"
)

// EventKind is the discriminant tag for domain events. The bus matches
// subscriptions on kind equality, with KindAny acting as a wildcard that
// receives every published event.
type EventKind string

const (
	// KindAny subscribes a handler to all domain events.
	KindAny EventKind = "*"

	KindCharacterMoved     EventKind = "character.moved"
	KindFactDiscovered     EventKind = "fact.discovered"
	KindDialogueOccurred   EventKind = "dialogue.occurred"
	KindDialogueEnded      EventKind = "dialogue.ended"
	KindNarrativeRequested EventKind = "narrative.requested"
)

// Event is a domain event: something significant that has already happened.
type Event interface {
	Kind() EventKind
	OccurredAt() time.Time
}

// EventMeta carries the identity and timestamp shared by all events.
// Embed it and the Kind method is all a new event type needs.
type EventMeta struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEventMeta stamps a fresh event identity.
func NewEventMeta() EventMeta {
	return EventMeta{ID: uuid.NewString(), Timestamp: time.Now().UTC()}
}

// OccurredAt implements Event.
func (m EventMeta) OccurredAt() time.Time { return m.Timestamp }

// CharacterMoved fires after a character changes location.
type CharacterMoved struct {
	EventMeta
	CharacterID    CharacterID `json:"character_id"`
	FromLocationID LocationID  `json:"from_location_id"`
	ToLocationID   LocationID  `json:"to_location_id"`
}

func (CharacterMoved) Kind() EventKind { return KindCharacterMoved }

// FactDiscovered fires when a character gains knowledge of a fact.
// Source describes how ("examining the desk", "dialogue").
type FactDiscovered struct {
	EventMeta
	CharacterID CharacterID `json:"character_id"`
	FactID      FactID      `json:"fact_id"`
	LocationID  LocationID  `json:"location_id,omitempty"`
	Source      string      `json:"source,omitempty"`
}

func (FactDiscovered) Kind() EventKind { return KindFactDiscovered }

// DialogueOccurred fires after a generated reply lands in a session.
type DialogueOccurred struct {
	EventMeta
	SpeakerID       CharacterID `json:"speaker_id"`
	ListenerID      CharacterID `json:"listener_id"`
	Text            string      `json:"text"`
	RevealedFactIDs []FactID    `json:"revealed_fact_ids,omitempty"`
}

func (DialogueOccurred) Kind() EventKind { return KindDialogueOccurred }

// DialogueEnded fires when a session is closed and folded into the
// participants' narrative memory.
type DialogueEnded struct {
	EventMeta
	SessionID    string        `json:"session_id"`
	Participants []CharacterID `json:"participants"`
}

func (DialogueEnded) Kind() EventKind { return KindDialogueEnded }

// NarrativeRequested fires whenever the engine calls out to the narrative
// generation service. Observability only; no handler should mutate state in
// response.
type NarrativeRequested struct {
	EventMeta
	Operation string `json:"operation"` // "generate" or "summarize"
	Model     string `json:"model,omitempty"`
}

func (NarrativeRequested) Kind() EventKind { return KindNarrativeRequested }
