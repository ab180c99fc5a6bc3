package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/time/rate"
)

// completer is the provider-specific part of a narrative client: one raw
// text completion call. Everything else (rate limiting, circuit breaking,
// retries, prompt building, response parsing) is shared.
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
	model() string
}

// httpStatusError marks a non-2xx provider response so the retry policy can
// distinguish transient failures (429, 5xx) from permanent ones (4xx).
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

// isTransient reports whether an error is worth retrying: provider overload
// or server faults, network failures, and timeouts. Request errors (bad
// prompt, bad auth) propagate immediately.
func isTransient(err error) bool {
	var se *httpStatusError
	if errors.As(err, &se) {
		return se.status == 429 || se.status >= 500
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, context.Canceled) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// narrativeClient implements NarrativeService on top of any completer.
type narrativeClient struct {
	completer  completer
	limiter    *rate.Limiter
	breaker    *CircuitBreaker
	maxRetries int
	retryDelay time.Duration
}

// newNarrativeClient wraps a completer with the shared call discipline.
// reqPerSec bounds the sustained request rate to the provider.
func newNarrativeClient(c completer, reqPerSec float64) *narrativeClient {
	if reqPerSec <= 0 {
		reqPerSec = 2
	}
	return &narrativeClient{
		completer:  c,
		limiter:    rate.NewLimiter(rate.Limit(reqPerSec), 1),
		breaker:    NewCircuitBreaker(),
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// Model implements NarrativeService.
func (c *narrativeClient) Model() string { return c.completer.model() }

// GenerateDialogue implements NarrativeService.
func (c *narrativeClient) GenerateDialogue(ctx context.Context, dc DialogueContext) (*DialogueResult, error) {
	raw, err := c.completeWithRetries(ctx, buildDialoguePrompt(dc))
	if err != nil {
		return nil, fmt.Errorf("llm: dialogue generation failed: %w", err)
	}
	return parseDialogueResponse(raw), nil
}

// Summarize implements NarrativeService.
func (c *narrativeClient) Summarize(ctx context.Context, text string) (string, error) {
	raw, err := c.completeWithRetries(ctx, buildSummarizePrompt(text))
	if err != nil {
		return "", fmt.Errorf("llm: summarization failed: %w", err)
	}
	return raw, nil
}

// completeWithRetries runs one completion through the rate limiter and
// circuit breaker, retrying transient failures up to maxRetries times with
// a fixed delay between attempts.
func (c *narrativeClient) completeWithRetries(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		result, err := c.breaker.Execute(ctx, func() (any, error) {
			return c.completer.complete(ctx, prompt)
		})
		if err == nil {
			return result.(string), nil
		}

		lastErr = err
		if !isTransient(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("giving up after %d attempts: %w", c.maxRetries, lastErr)
}
