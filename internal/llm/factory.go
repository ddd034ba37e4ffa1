package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/maxcollombin/gn-rag-stack/internal/config"
)

// NewGenerator builds the answer-generation client for the configured
// provider.
func NewGenerator(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		return NewOllamaClient(cfg), nil

	case "openai":
		return NewOpenAIClient(cfg), nil

	case "gemini":
		return NewGeminiClient(ctx, cfg)

	case "claude":
		return NewClaudeClient(cfg), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

// NewEmbedder builds the embedding client. Claude has no embedding endpoint,
// so only ollama and openai-compatible providers are accepted here.
func NewEmbedder(cfg config.EmbeddingConfig) (EmbedderClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama":
		return NewOllamaEmbedder(cfg), nil

	case "openai":
		return NewOpenAIEmbedder(cfg), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
