package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockService is a deterministic NarrativeService for tests and offline
// play. Replies and summaries can be queued in advance; when the queue is
// empty it falls back to canned output derived from the input so the game
// loop stays playable without a model.
type MockService struct {
	mu        sync.Mutex
	replies   []*DialogueResult
	summaries []string

	// GenerateErr and SummarizeErr, when set, fail the corresponding call.
	GenerateErr  error
	SummarizeErr error

	// Call bookkeeping for assertions.
	GenerateCalls  int
	SummarizeCalls int
	LastContext    DialogueContext
	SummarizedText []string
}

// NewMockService creates an empty mock.
func NewMockService() *MockService {
	return &MockService{}
}

// QueueReply appends a scripted reply; replies are consumed in FIFO order.
func (m *MockService) QueueReply(r *DialogueResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, r)
}

// QueueSummary appends a scripted summary; summaries are consumed in FIFO order.
func (m *MockService) QueueSummary(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, s)
}

// Model implements NarrativeService.
func (m *MockService) Model() string { return "mock" }

// GenerateDialogue implements NarrativeService.
func (m *MockService) GenerateDialogue(ctx context.Context, dc DialogueContext) (*DialogueResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateCalls++
	m.LastContext = dc
	if m.GenerateErr != nil {
		return nil, m.GenerateErr
	}
	if len(m.replies) > 0 {
		r := m.replies[0]
		m.replies = m.replies[1:]
		return r, nil
	}
	return &DialogueResult{
		Text: fmt.Sprintf("%s considers your words. %q... I see.", dc.ListenerName, dc.Topic),
	}, nil
}

// Summarize implements NarrativeService.
func (m *MockService) Summarize(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SummarizeCalls++
	m.SummarizedText = append(m.SummarizedText, text)
	if m.SummarizeErr != nil {
		return "", m.SummarizeErr
	}
	if len(m.summaries) > 0 {
		s := m.summaries[0]
		m.summaries = m.summaries[1:]
		return s, nil
	}
	lines := strings.Count(text, "\n") + 1
	return fmt.Sprintf("(summary of %d earlier entries)", lines), nil
}
