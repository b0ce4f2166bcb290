package embeddings

import (
	"context"
	"fmt"

	"foxo/internal/config"
	"foxo/internal/rag/interfaces"
)

// New is a factory that creates the configured embedding provider.
func New(ctx context.Context, cfg config.EmbeddingConfig) (interfaces.EmbeddingModel, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGoogleModel(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "ollama":
		return NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
