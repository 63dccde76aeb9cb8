package llm

import (
	"context"
	"fmt"

	"stockbot/types"
)

// Completer sends one prompt to a text model and returns the text of its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	ModelName() string
}

// Extractor is the text-understanding capability used by the pipeline.
type Extractor interface {
	ExtractMentions(ctx context.Context, posts []types.Post) ([]types.CompanyMention, error)
	AuthorProfile(ctx context.Context, company types.CompanyMention) (string, error)
	AnalyzeCatalyst(ctx context.Context, company types.CompanyMention, postText string) (string, error)
	AuthorDigest(ctx context.Context, in DigestInput) (string, error)
}

// DigestInput is what the digest prompt is built from.
type DigestInput struct {
	Handle    string
	Companies []types.Company
	Catalysts []types.Catalyst
}

// NewCompleter builds the completer for provider ("anthropic", "openai" or "cohere").
func NewCompleter(provider, apiKey, model string) (Completer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key for provider %q", provider)
	}
	switch provider {
	case "", "anthropic":
		return NewAnthropicClient(apiKey, model), nil
	case "openai":
		return NewOpenAIClient(apiKey, model), nil
	case "cohere":
		return NewCohereClient(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
