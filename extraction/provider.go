package extraction

import (
	"context"
	"fmt"
	"strings"
)

// Completion is one model answer plus its token accounting.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Provider sends one system+user prompt pair to a language model.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (*Completion, error)
}

// SplitProvider splits a "provider/model" identifier such as
// "openai/gpt-4o". The model part may be empty.
func SplitProvider(spec string) (name, model string) {
	name, model, _ = strings.Cut(strings.TrimSpace(spec), "/")
	return strings.ToLower(name), model
}

// NewProvider creates a provider from a "provider/model" identifier.
func NewProvider(spec, apiKey string, maxTokens int) (Provider, error) {
	name, model := SplitProvider(spec)
	switch name {
	case "openai", "gpt":
		return NewOpenAIProvider(apiKey, model, maxTokens)
	case "anthropic", "claude":
		return NewAnthropicProvider(apiKey, model, maxTokens)
	default:
		return nil, fmt.Errorf("%w: %q (supported: openai, anthropic)", ErrUnknownProvider, name)
	}
}
