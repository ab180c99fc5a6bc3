package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// openaiCompleter talks to the OpenAI chat completions API (or any
// API-compatible endpoint via BaseURL).
type openaiCompleter struct {
	baseURL   string
	apiKey    string
	modelName string
	client    *http.Client
}

// OpenAIConfig holds OpenAI client configuration.
type OpenAIConfig struct {
	// BaseURL overrides the API endpoint, for OpenAI-compatible providers
	// (default: https://api.openai.com/v1).
	BaseURL string

	// APIKey is the bearer token. Required.
	APIKey string

	// Model is the model name (default: gpt-4o-mini).
	Model string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond bounds the sustained call rate (default: 2).
	RequestsPerSecond float64
}

type openaiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openaiChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message openaiChatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIService creates a NarrativeService backed by the OpenAI API.
func NewOpenAIService(config OpenAIConfig) (NarrativeService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return newNarrativeClient(&openaiCompleter{
		baseURL:   config.BaseURL,
		apiKey:    config.APIKey,
		modelName: config.Model,
		client:    &http.Client{Timeout: config.Timeout},
	}, config.RequestsPerSecond), nil
}

func (o *openaiCompleter) model() string { return o.modelName }

func (o *openaiCompleter) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(openaiChatRequest{
		Model:       o.modelName,
		Messages:    []openaiChatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil {
		return "", fmt.Errorf("openai: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{status: resp.StatusCode, body: string(data)}
	}

	var out openaiChatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("openai: failed to parse response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: response contained no choices")
	}
	return out.Choices[0].Message.Content, nil
}
