package game

import (
	"context"
	"fmt"

	"github.com/whitlocke/intrigue/internal/bus"
	"github.com/whitlocke/intrigue/internal/memory"
	"github.com/whitlocke/intrigue/pkg/types"
)

// EndDialogueHandler closes sessions, folding the transcript into both
// participants' long-term memory before the session is dropped.
type EndDialogueHandler struct {
	bus    *bus.EventBus
	memory *memory.Service
}

// NewEndDialogueHandler creates an end-dialogue handler.
func NewEndDialogueHandler(b *bus.EventBus, mem *memory.Service) *EndDialogueHandler {
	return &EndDialogueHandler{bus: b, memory: mem}
}

// Execute ends the named session. Missing or already-inactive sessions are a
// no-op. A non-empty transcript is summarized once per participant into that
// participant's narrative memory; summarization failures propagate and leave
// the session open so the caller can retry. On success the session is marked
// inactive, removed from the world, and a dialogue-ended event is published.
func (h *EndDialogueHandler) Execute(ctx context.Context, cmd EndDialogueCommand, world *types.World) error {
	session, ok := world.ActiveSessions[cmd.SessionID]
	if !ok || !session.IsActive {
		return nil
	}

	if len(session.History) > 0 {
		transcript := make([]string, 0, len(session.History))
		for _, r := range session.History {
			name := r.SpeakerID
			if c, ok := world.Characters[r.SpeakerID]; ok {
				name = c.Name
			}
			transcript = append(transcript, fmt.Sprintf("%s: %q", name, r.Message))
		}

		for _, id := range session.Participants {
			participant, ok := world.Characters[id]
			if !ok {
				continue
			}
			if err := h.memory.SummarizeIntoMemory(ctx, participant, transcript); err != nil {
				return fmt.Errorf("ending session %s: %w", session.ID, err)
			}
			h.memory.CompressIfNeeded(world, participant)
		}
	}

	session.IsActive = false
	delete(world.ActiveSessions, session.ID)

	h.bus.Publish(ctx, types.DialogueEnded{
		EventMeta:    types.NewEventMeta(),
		SessionID:    session.ID,
		Participants: session.Participants[:],
	}, world)
	return nil
}
