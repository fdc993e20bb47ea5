// Package provider implements model.Provider for the supported LLM backends.
//
// The server never reaches for a process-wide client: main builds exactly one
// Provider from configuration with NewProvider (or FromConfig) and injects it
// into the HTTP layer. Tests inject provider/testutil.MockProvider instead.
//
// # Type Conversions
//
// Each backend converts provider-agnostic model.Turn values into its own
// request types. A turn that carries an image arrives as the ordered parts
// [image, text]; see the conversion functions in conversions.go:
//   - ConvertToAnthropicMessages
//   - ConvertToOpenAIMessages
//   - ConvertToOllamaMessages
//
// # Usage
//
//	cfg := provider.Config{
//	    Type:         provider.ProviderTypeAnthropic,
//	    Model:        "claude-sonnet-4-5-20250929",
//	    APIKey:       os.Getenv("ANTHROPIC_API_KEY"),
//	    SystemPrompt: "You are a helpful assistant.",
//	}
//	p, err := provider.NewProvider(cfg)
//	if err != nil {
//	    // handle error
//	}
//	err = p.Stream(ctx, turns, callback)
package provider

// Note: The Provider interface and StreamCallback are defined in the model package
// (model/provider.go) to avoid import cycles. This package implements model.Provider.

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// DefaultMaxTokens is used when Config.MaxTokens is not positive.
const DefaultMaxTokens = 4096

// Config holds provider-specific configuration.
type Config struct {
	Type         ProviderType
	BaseURL      string
	Model        string
	APIKey       string // For hosted providers (unused for Ollama)
	SystemPrompt string // Prepended to every conversation; empty for none
	MaxTokens    int64
}

func (c Config) maxTokens() int64 {
	if c.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.MaxTokens
}
