package llm

import "fmt"

// Config selects and configures a narrative service provider.
type Config struct {
	Provider          string // "ollama", "openai" or "mock"
	BaseURL           string
	APIKey            string
	Model             string
	RequestsPerSecond float64
}

// NewService creates a NarrativeService from the given configuration.
func NewService(cfg Config) (NarrativeService, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaService(OllamaConfig{
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	case "openai":
		return NewOpenAIService(OpenAIConfig{
			BaseURL:           cfg.BaseURL,
			APIKey:            cfg.APIKey,
			Model:             cfg.Model,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	case "mock":
		return NewMockService(), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
