package game

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whitlocke/intrigue/internal/bus"
	"github.com/whitlocke/intrigue/internal/llm"
	"github.com/whitlocke/intrigue/pkg/types"
)

func newTalkHandler(mock *llm.MockService) (*TalkHandler, *eventRecorder) {
	b := bus.New()
	rec := recordEvents(b)
	return NewTalkHandler(b, newTestMemory(), mock), rec
}

func TestTalk_EmptyMessageOpensSessionOnly(t *testing.T) {
	mock := llm.NewMockService()
	h, rec := newTalkHandler(mock)
	w := testWorld()

	res, err := h.Execute(context.Background(), TalkToCharacterCommand{
		WorldID: "manor", SpeakerID: "player", ListenerID: "sophie",
	}, w)
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.NotEmpty(t, res.SessionID)
	assert.Empty(t, res.Text)

	session := w.ActiveSessions[res.SessionID]
	require.NotNil(t, session)
	assert.True(t, session.IsActive)
	assert.Empty(t, session.History, "no utterance on an empty opening")

	assert.Zero(t, mock.GenerateCalls, "no generation without a message")
	assert.Empty(t, rec.kinds())
}

func TestTalk_ExchangeAppendsBothReplicas(t *testing.T) {
	mock := llm.NewMockService()
	mock.QueueReply(&llm.DialogueResult{Text: "I was in the garden all night."})
	h, rec := newTalkHandler(mock)
	w := testWorld()

	res, err := h.Execute(context.Background(), TalkToCharacterCommand{
		WorldID: "manor", SpeakerID: "player", ListenerID: "sophie",
		Message: "Where were you at midnight?",
	}, w)
	require.NoError(t, err)
	assert.Equal(t, "I was in the garden all night.", res.Text)

	session := w.ActiveSessions[res.SessionID]
	require.Len(t, session.History, 2)
	assert.Equal(t, types.CharacterID("player"), session.History[0].SpeakerID)
	assert.Equal(t, "Where were you at midnight?", session.History[0].Message)
	assert.Equal(t, types.CharacterID("sophie"), session.History[1].SpeakerID)

	// Both sides remember the exchange.
	player := w.Characters["player"].NarrativeMemory
	require.Len(t, player, 2)
	assert.Contains(t, player[0], "I said to Sophie")
	assert.Contains(t, player[1], "Sophie replied")

	sophie := w.Characters["sophie"].NarrativeMemory
	require.Len(t, sophie, 2)
	assert.Contains(t, sophie[0], "Detective said to me")

	assert.Equal(t, []types.EventKind{types.KindDialogueOccurred}, rec.kinds())
}

func TestTalk_ContinuesActiveSession(t *testing.T) {
	mock := llm.NewMockService()
	h, _ := newTalkHandler(mock)
	w := testWorld()

	first, err := h.Execute(context.Background(), TalkToCharacterCommand{
		SpeakerID: "player", ListenerID: "sophie", Message: "Good evening.",
	}, w)
	require.NoError(t, err)

	second, err := h.Execute(context.Background(), TalkToCharacterCommand{
		SpeakerID: "player", ListenerID: "sophie", Message: "About last night...",
		SessionID: first.SessionID,
	}, w)
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.False(t, second.Created)
	assert.Len(t, w.ActiveSessions, 1)
	assert.Len(t, w.ActiveSessions[first.SessionID].History, 4)
}

func TestTalk_StaleSessionIDOpensFreshSession(t *testing.T) {
	mock := llm.NewMockService()
	h, _ := newTalkHandler(mock)
	w := testWorld()

	res, err := h.Execute(context.Background(), TalkToCharacterCommand{
		SpeakerID: "player", ListenerID: "sophie", Message: "Hello?",
		SessionID: "long-gone",
	}, w)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEqual(t, "long-gone", res.SessionID)
}

func TestTalk_SessionHistoryReachesGenerator(t *testing.T) {
	mock := llm.NewMockService()
	h, _ := newTalkHandler(mock)
	w := testWorld()
	w.Characters["sophie"].Goals = []string{"hide the lighter"}
	w.Characters["sophie"].Learn("fact2", 1.0)

	first, err := h.Execute(context.Background(), TalkToCharacterCommand{
		SpeakerID: "player", ListenerID: "sophie", Message: "Good evening.",
	}, w)
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), TalkToCharacterCommand{
		SpeakerID: "player", ListenerID: "sophie", Message: "Seen a lighter?",
		SessionID: first.SessionID,
	}, w)
	require.NoError(t, err)

	dc := mock.LastContext
	assert.Equal(t, "Sophie", dc.ListenerName)
	assert.Equal(t, []string{"hide the lighter"}, dc.ListenerGoals)
	assert.Contains(t, dc.ListenerKnowledge, "silver lighter")
	assert.Equal(t, "Seen a lighter?", dc.Topic)
	// The transcript includes the earlier exchange plus this turn's message.
	require.Len(t, dc.SessionHistory, 3)
	assert.Equal(t, "Detective: Good evening.", dc.SessionHistory[0])
	assert.Len(t, dc.ScenarioFacts, 2)
}

func TestTalk_RevealedFactsGrantedOnce(t *testing.T) {
	mock := llm.NewMockService()
	mock.QueueReply(&llm.DialogueResult{Text: "Fine. It was burned at midnight.", RevealedFactIDs: []string{"fact1", "bogus"}})
	mock.QueueReply(&llm.DialogueResult{Text: "I already told you.", RevealedFactIDs: []string{"fact1"}})
	h, _ := newTalkHandler(mock)
	w := testWorld()

	first, err := h.Execute(context.Background(), TalkToCharacterCommand{
		SpeakerID: "player", ListenerID: "sophie", Message: "The letter?",
	}, w)
	require.NoError(t, err)
	assert.Equal(t, []types.FactID{"fact1"}, first.RevealedFactIDs, "unknown fact ids are dropped")
	assert.True(t, w.Characters["player"].Knows("fact1"))

	assert.Equal(t, 1, countLearnedLines(w.Characters["player"].NarrativeMemory))

	second, err := h.Execute(context.Background(), TalkToCharacterCommand{
		SpeakerID: "player", ListenerID: "sophie", Message: "Again?",
		SessionID: first.SessionID,
	}, w)
	require.NoError(t, err)
	assert.Empty(t, second.RevealedFactIDs, "an already-known fact is not re-revealed")
	assert.Equal(t, 1, countLearnedLines(w.Characters["player"].NarrativeMemory), "no duplicate learned lines")
}

func countLearnedLines(mem []string) int {
	n := 0
	for _, line := range mem {
		if strings.Contains(line, "I learned something new") {
			n++
		}
	}
	return n
}

func TestTalk_GenerationFailurePropagates(t *testing.T) {
	mock := llm.NewMockService()
	mock.GenerateErr = errors.New("model unavailable")
	h, rec := newTalkHandler(mock)
	w := testWorld()

	_, err := h.Execute(context.Background(), TalkToCharacterCommand{
		SpeakerID: "player", ListenerID: "sophie", Message: "Talk.",
	}, w)
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
	assert.Empty(t, rec.kinds())
}

func TestTalk_Validation(t *testing.T) {
	h, _ := newTalkHandler(llm.NewMockService())

	cases := []struct {
		name string
		cmd  TalkToCharacterCommand
	}{
		{"unknown speaker", TalkToCharacterCommand{SpeakerID: "ghost", ListenerID: "sophie"}},
		{"unknown listener", TalkToCharacterCommand{SpeakerID: "player", ListenerID: "ghost"}},
		{"not co-located", TalkToCharacterCommand{SpeakerID: "player", ListenerID: "marc"}},
		{"self talk", TalkToCharacterCommand{SpeakerID: "player", ListenerID: "player"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := testWorld()
			_, err := h.Execute(context.Background(), tc.cmd, w)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Empty(t, w.ActiveSessions, "validation must not create a session")
		})
	}
}
