// Package config provides configuration management for the engine.
// It loads settings from environment variables with the INTRIGUE_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration settings for the engine.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Security SecurityConfig
	Game     GameConfig
	Features FeaturesConfig
}

// ServerConfig contains the event-feed HTTP server configuration.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"6464"`
}

// StorageConfig contains world persistence configuration.
type StorageConfig struct {
	// Engine selects the world store: memory, sqlite, postgres.
	Engine string `env:"STORAGE_ENGINE" envDefault:"sqlite"`
	// DataPath is the directory holding the sqlite database file.
	DataPath string `env:"DATA_PATH" envDefault:"./data"`
	// PostgresDSN is required when Engine is postgres.
	PostgresDSN string `env:"POSTGRES_DSN"`
}

// LLMConfig contains narrative service configuration.
type LLMConfig struct {
	// Provider selects the backend: ollama, openai, mock.
	Provider string `env:"LLM_PROVIDER" envDefault:"ollama"`
	// BaseURL overrides the provider's default endpoint.
	BaseURL string `env:"LLM_URL"`
	APIKey  string `env:"LLM_API_KEY"`
	Model   string `env:"LLM_MODEL"`
	// RequestsPerSecond caps outbound generation calls.
	RequestsPerSecond float64 `env:"LLM_REQUESTS_PER_SECOND" envDefault:"2"`
}

// SecurityConfig contains event-feed authentication settings.
type SecurityConfig struct {
	// Mode is development or production. Production requires a feed token.
	Mode      string `env:"SECURITY_MODE" envDefault:"development"`
	FeedToken string `env:"FEED_TOKEN"`
}

// GameConfig contains simulation tuning.
type GameConfig struct {
	// TickMinutes is how far the clock advances per player turn.
	TickMinutes int `env:"TICK_MINUTES" envDefault:"10"`
	// MemoryThreshold and MemoryChunkSize drive narrative-memory compaction:
	// once a character's memory exceeds the threshold, the oldest chunk is
	// summarized away in the background.
	MemoryThreshold int `env:"MEMORY_THRESHOLD" envDefault:"15"`
	MemoryChunkSize int `env:"MEMORY_CHUNK_SIZE" envDefault:"10"`
}

// FeaturesConfig contains feature flags.
type FeaturesConfig struct {
	// EnableEventFeed serves the websocket event feed.
	EnableEventFeed bool `env:"ENABLE_EVENT_FEED" envDefault:"false"`
}

// LoadConfig reads configuration from INTRIGUE_-prefixed environment
// variables, applying defaults for anything unset, then validates the
// result.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "INTRIGUE_"}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that tag defaults cannot express.
func (c *Config) Validate() error {
	switch c.Storage.Engine {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage engine %q (want memory, sqlite or postgres)", c.Storage.Engine)
	}
	if c.Storage.Engine == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("INTRIGUE_POSTGRES_DSN is required when the storage engine is postgres")
	}
	if c.Security.Mode != "development" && c.Security.Mode != "production" {
		return fmt.Errorf("unknown security mode %q (want development or production)", c.Security.Mode)
	}
	if c.Security.Mode == "production" && c.Features.EnableEventFeed && c.Security.FeedToken == "" {
		return fmt.Errorf("INTRIGUE_FEED_TOKEN is required to serve the event feed in production mode")
	}
	if c.Game.TickMinutes <= 0 {
		return fmt.Errorf("tick minutes must be positive, got %d", c.Game.TickMinutes)
	}
	return nil
}
