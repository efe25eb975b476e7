package provider

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for provider operations.
var (
	ErrRateLimit       = errors.New("rate limit exceeded")
	ErrTimeout         = errors.New("request timed out")
	ErrInvalidResponse = errors.New("invalid response from provider")
)

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed returns a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer generates text completions from a prompt.
type Completer interface {
	// Complete returns a text completion for the given prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompletionOptions tunes sampling behavior for Completer implementations.
// The zero value selects each provider's defaults.
type CompletionOptions struct {
	// MaxTokens bounds the generated output length.
	MaxTokens int
	// Temperature is the sampling temperature in [0, 1]. Issue analysis
	// wants low values for consistent classification.
	Temperature float64
}

// defaultMaxTokens is used when CompletionOptions.MaxTokens is zero.
const defaultMaxTokens = 1024

func (o CompletionOptions) maxTokens() int {
	if o.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return o.MaxTokens
}

// NewCompleter creates a Completer for the given provider type.
// Supported types: "anthropic", "openai", "ollama".
func NewCompleter(typ, apiKey, url, model string, opts CompletionOptions) (Completer, error) {
	switch typ {
	case "anthropic":
		return NewAnthropicCompleter(apiKey, model, opts), nil
	case "openai":
		return NewOpenAICompleter(apiKey, model, opts), nil
	case "ollama":
		return NewOllamaCompleter(url, model, opts), nil
	default:
		return nil, fmt.Errorf("unsupported completer type: %q", typ)
	}
}

// NewEmbedder creates an Embedder for the given provider type.
// Supported types: "openai", "ollama".
func NewEmbedder(typ, apiKey, url, model string) (Embedder, error) {
	switch typ {
	case "openai":
		return NewOpenAIEmbedder(apiKey, model), nil
	case "ollama":
		return NewOllamaEmbedder(url, model), nil
	default:
		return nil, fmt.Errorf("unsupported embedder type: %q", typ)
	}
}
