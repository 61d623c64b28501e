package driven

import (
	"context"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
)

// LLMService provides auxiliary text generation for the retrieval
// pipeline: query condensation and keyword extraction. This is an
// optional service - when it fails or is absent, retrieval degrades to
// documented local fallbacks instead of surfacing errors to the user.
type LLMService interface {
	// Generate produces a single completion for the given system prompt
	// and conversation messages.
	Generate(ctx context.Context, systemPrompt string, messages []domain.Message, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
