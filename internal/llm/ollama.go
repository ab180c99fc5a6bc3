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

// ollamaCompleter talks to a local Ollama instance via /api/generate.
type ollamaCompleter struct {
	baseURL   string
	modelName string
	client    *http.Client
}

// OllamaConfig holds Ollama client configuration.
type OllamaConfig struct {
	// BaseURL is the base URL for the Ollama API (default: http://localhost:11434).
	BaseURL string

	// Model is the model name to use for generation (default: qwen2.5:7b).
	Model string

	// Timeout is the per-request timeout (default: 60s; narrative replies
	// are slow on local hardware).
	Timeout time.Duration

	// RequestsPerSecond bounds the sustained call rate (default: 2).
	RequestsPerSecond float64
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaService creates a NarrativeService backed by Ollama.
func NewOllamaService(config OllamaConfig) NarrativeService {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		config.Model = "qwen2.5:7b"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return newNarrativeClient(&ollamaCompleter{
		baseURL:   config.BaseURL,
		modelName: config.Model,
		client:    &http.Client{Timeout: config.Timeout},
	}, config.RequestsPerSecond)
}

func (o *ollamaCompleter) model() string { return o.modelName }

func (o *ollamaCompleter) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  o.modelName,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("ollama: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{status: resp.StatusCode, body: string(data)}
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("ollama: failed to parse response: %w", err)
	}
	return out.Response, nil
}
