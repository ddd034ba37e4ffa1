package llm

import (
	"context"
)

// LLMClient produces a natural-language answer for a prompt. Implementations
// apply the fixed decoding parameters they were constructed with.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EmbedderClient turns text into a fixed-dimension vector.
type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
