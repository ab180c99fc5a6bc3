package llm

import (
	"context"

	"github.com/whitlocke/intrigue/pkg/types"
)

// EventPublisher is the slice of the event bus the instrumented service
// needs. Satisfied by *bus.EventBus.
type EventPublisher interface {
	Publish(ctx context.Context, event types.Event, world *types.World)
}

// instrumentedService decorates a NarrativeService with a narrative.requested
// event per outbound call, so observers can track model usage without the
// service knowing about them.
type instrumentedService struct {
	inner NarrativeService
	pub   EventPublisher
}

// WithEventPublisher wraps a service so every call publishes a
// types.NarrativeRequested event before reaching the provider.
func WithEventPublisher(svc NarrativeService, pub EventPublisher) NarrativeService {
	if pub == nil {
		return svc
	}
	return &instrumentedService{inner: svc, pub: pub}
}

func (s *instrumentedService) Model() string { return s.inner.Model() }

func (s *instrumentedService) GenerateDialogue(ctx context.Context, dc DialogueContext) (*DialogueResult, error) {
	s.pub.Publish(ctx, types.NarrativeRequested{
		EventMeta: types.NewEventMeta(),
		Operation: "generate",
		Model:     s.inner.Model(),
	}, nil)
	return s.inner.GenerateDialogue(ctx, dc)
}

func (s *instrumentedService) Summarize(ctx context.Context, text string) (string, error) {
	s.pub.Publish(ctx, types.NarrativeRequested{
		EventMeta: types.NewEventMeta(),
		Operation: "summarize",
		Model:     s.inner.Model(),
	}, nil)
	return s.inner.Summarize(ctx, text)
}
