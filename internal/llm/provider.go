package llm

import (
	"context"

	"meal-rotation/internal/config"
)

// NewTextGenerator returns the client for the configured provider.
// Callers should close the result when it implements Closer.
func NewTextGenerator(ctx context.Context, cfg *config.Config) (TextGenerator, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	if cfg.LLMProvider == config.ProviderGemini {
		return NewGeminiClient(ctx, cfg)
	}
	return NewGroqClient(cfg), nil
}
