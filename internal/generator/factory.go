package generator

import (
	"fmt"
	"log/slog"
)

// Config selects and configures a generator.
type Config struct {
	Provider string
	OpenAI   OpenAIConfig
}

// New creates a Generator from configuration.
func New(cfg Config, logger *slog.Logger) (Generator, error) {
	switch cfg.Provider {
	case "openai":
		g, err := NewOpenAIGenerator(cfg.OpenAI, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing openai generator: %w", err)
		}
		return g, nil
	case "mock", "":
		return NewMockGenerator(nil), nil
	default:
		return nil, fmt.Errorf("unknown generator provider: %q", cfg.Provider)
	}
}
