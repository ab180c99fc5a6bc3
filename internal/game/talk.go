package game

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/whitlocke/intrigue/internal/bus"
	"github.com/whitlocke/intrigue/internal/llm"
	"github.com/whitlocke/intrigue/internal/memory"
	"github.com/whitlocke/intrigue/pkg/types"
)

// TalkHandler manages dialogue sessions and drives the narrative service to
// produce listener replies. One Execute call is one exchange: the speaker's
// message goes into the session, the service answers in character, and any
// facts the reply revealed are granted to the speaker.
type TalkHandler struct {
	bus       *bus.EventBus
	memory    *memory.Service
	generator llm.NarrativeService
}

// NewTalkHandler creates a talk handler backed by the given narrative
// service.
func NewTalkHandler(b *bus.EventBus, mem *memory.Service, generator llm.NarrativeService) *TalkHandler {
	return &TalkHandler{bus: b, memory: mem, generator: generator}
}

// TalkResult reports one dialogue exchange back to the caller.
type TalkResult struct {
	SessionID       string
	Created         bool // a new session was opened for this exchange
	Text            string
	RevealedFactIDs []types.FactID
}

// memoryContextLines caps how much listener episodic memory goes into the
// generation prompt.
const memoryContextLines = 10

// Execute runs one exchange between speaker and listener. Both must exist
// and share a location. If the command's session ID resolves to an active
// session the exchange continues it; otherwise a fresh session is created.
// An empty message opens the session without an utterance and without
// touching the narrative service. Generation failures propagate to the
// caller after the speaker's line has already entered the session.
func (h *TalkHandler) Execute(ctx context.Context, cmd TalkToCharacterCommand, world *types.World) (*TalkResult, error) {
	speaker, ok := world.Characters[cmd.SpeakerID]
	if !ok {
		return nil, validationErrorf("character %q not found", cmd.SpeakerID)
	}
	listener, ok := world.Characters[cmd.ListenerID]
	if !ok {
		return nil, validationErrorf("character %q not found", cmd.ListenerID)
	}
	if speaker.ID == listener.ID {
		return nil, validationErrorf("%q cannot talk to themselves", speaker.ID)
	}
	if speaker.LocationID != listener.LocationID {
		return nil, validationErrorf("%s and %s are not in the same location", speaker.Name, listener.Name)
	}

	session, created := h.resolveSession(cmd, world, speaker.ID, listener.ID)
	result := &TalkResult{SessionID: session.ID, Created: created}
	if cmd.Message == "" {
		return result, nil
	}

	session.Append(speaker.ID, cmd.Message, world.Clock)

	reply, err := h.generator.GenerateDialogue(ctx, h.buildContext(world, session, speaker, listener, cmd.Message))
	if err != nil {
		return nil, fmt.Errorf("dialogue generation with %s failed: %w", listener.Name, err)
	}
	session.Append(listener.ID, reply.Text, world.Clock)

	stamp := world.Clock.String()
	speaker.Remember(fmt.Sprintf("[%s] I said to %s: %q", stamp, listener.Name, cmd.Message))
	speaker.Remember(fmt.Sprintf("[%s] %s replied: %q", stamp, listener.Name, reply.Text))
	listener.Remember(fmt.Sprintf("[%s] %s said to me: %q", stamp, speaker.Name, cmd.Message))
	listener.Remember(fmt.Sprintf("[%s] I replied: %q", stamp, reply.Text))

	revealed := h.grantRevealedFacts(world, speaker, reply.RevealedFactIDs, stamp)
	result.Text = reply.Text
	result.RevealedFactIDs = revealed

	h.bus.Publish(ctx, types.DialogueOccurred{
		EventMeta:       types.NewEventMeta(),
		SpeakerID:       speaker.ID,
		ListenerID:      listener.ID,
		Text:            reply.Text,
		RevealedFactIDs: revealed,
	}, world)

	if h.memory != nil {
		h.memory.CompressIfNeeded(world, speaker)
		h.memory.CompressIfNeeded(world, listener)
	}
	return result, nil
}

// resolveSession returns the active session named by the command, or opens a
// fresh one when the ID is empty, unknown, or points at a closed session.
func (h *TalkHandler) resolveSession(cmd TalkToCharacterCommand, world *types.World, speakerID, listenerID types.CharacterID) (*types.DialogueSession, bool) {
	if cmd.SessionID != "" {
		if s, ok := world.ActiveSessions[cmd.SessionID]; ok && s.IsActive && s.HasParticipant(speakerID) && s.HasParticipant(listenerID) {
			return s, false
		}
	}

	session := &types.DialogueSession{
		ID:           uuid.NewString(),
		Participants: [2]types.CharacterID{speakerID, listenerID},
		IsActive:     true,
	}
	if world.ActiveSessions == nil {
		world.ActiveSessions = make(map[string]*types.DialogueSession)
	}
	world.ActiveSessions[session.ID] = session
	return session, true
}

// buildContext assembles everything the narrative service sees for one
// reply. Fact-derived sections are sorted by fact ID so identical worlds
// yield identical prompts.
func (h *TalkHandler) buildContext(world *types.World, session *types.DialogueSession, speaker, listener *types.Character, message string) llm.DialogueContext {
	factIDs := make([]types.FactID, 0, len(world.Facts))
	for id := range world.Facts {
		factIDs = append(factIDs, id)
	}
	sort.Strings(factIDs)

	scenarioFacts := make([]string, 0, len(factIDs))
	var speakerKnown, listenerKnown []string
	for _, id := range factIDs {
		fact := world.Facts[id]
		scenarioFacts = append(scenarioFacts, fmt.Sprintf("%s: %s", fact.ID, fact.Content))
		if speaker.Knows(id) {
			speakerKnown = append(speakerKnown, fact.Content)
		}
		if listener.Knows(id) {
			listenerKnown = append(listenerKnown, fact.Content)
		}
	}

	recent := listener.NarrativeMemory
	if len(recent) > memoryContextLines {
		recent = recent[len(recent)-memoryContextLines:]
	}

	history := make([]string, 0, len(session.History))
	for _, r := range session.History {
		name := r.SpeakerID
		if c, ok := world.Characters[r.SpeakerID]; ok {
			name = c.Name
		}
		history = append(history, fmt.Sprintf("%s: %s", name, r.Message))
	}

	return llm.DialogueContext{
		SpeakerName:        speaker.Name,
		SpeakerDescription: speaker.Description,
		SpeakerGoals:       speaker.Goals,
		SpeakerKnowledge:   strings.Join(speakerKnown, "; "),

		ListenerName:        listener.Name,
		ListenerDescription: listener.Description,
		ListenerGoals:       listener.Goals,
		ListenerKnowledge:   strings.Join(listenerKnown, "; "),

		ListenerMemory: recent,
		SessionHistory: history,
		ScenarioFacts:  scenarioFacts,

		Topic: message,
	}
}

// grantRevealedFacts adds each newly revealed fact to the speaker's
// knowledge. IDs that do not name a scenario fact are logged and skipped;
// already-known facts grant nothing and produce no memory line.
func (h *TalkHandler) grantRevealedFacts(world *types.World, speaker *types.Character, ids []string, stamp string) []types.FactID {
	var revealed []types.FactID
	for _, id := range ids {
		fact, ok := world.Facts[id]
		if !ok {
			log.Printf("WARNING: dialogue revealed unknown fact id %q, ignoring", id)
			continue
		}
		if !speaker.Learn(fact.ID, 1.0) {
			continue
		}
		speaker.Remember(fmt.Sprintf("[%s] I learned something new: %s", stamp, fact.Content))
		revealed = append(revealed, fact.ID)
	}
	return revealed
}
