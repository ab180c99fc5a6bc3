// Package llm provides the narrative generation service: the engine's only
// outbound dependency. Clients wrap their HTTP calls with circuit breaker
// protection and a shared rate limiter, and own the retry policy (bounded
// retries with delay on transient failures, immediate propagation for
// permanent ones). Handlers upstream treat the service as a black box.
package llm

import "context"

// DialogueContext is everything the service needs to produce one in-character
// reply: who is speaking to whom, what each knows and wants, the listener's
// recent episodic memory, the running session transcript, and the scenario
// facts the model may mark as revealed.
type DialogueContext struct {
	SpeakerName        string
	SpeakerDescription string
	SpeakerGoals       []string
	SpeakerKnowledge   string // semicolon-joined known-fact contents

	ListenerName        string
	ListenerDescription string
	ListenerGoals       []string
	ListenerKnowledge   string

	ListenerMemory []string // last N narrative-memory lines of the listener
	SessionHistory []string // full in-session transcript, "Name: message" lines
	ScenarioFacts  []string // enumerated facts, "id: content" lines

	Topic string // the incoming message
}

// DialogueResult is the service's answer: the reply text, the IDs of
// scenario facts the reply revealed, and any emotional shift it implies.
type DialogueResult struct {
	Text            string
	RevealedFactIDs []string
	EmotionalImpact map[string]float64
}

// NarrativeService generates in-character dialogue and summarizes narrative
// text. Both calls block until the backing model responds.
type NarrativeService interface {
	GenerateDialogue(ctx context.Context, dc DialogueContext) (*DialogueResult, error)
	Summarize(ctx context.Context, text string) (string, error)
	Model() string
}
