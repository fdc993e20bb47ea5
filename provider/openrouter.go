package provider

import "fmt"

// OpenRouterProvider connects to OpenRouter's API, which is OpenAI-compatible,
// through the OpenAI Go SDK.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a new OpenRouter provider instance.
//
// Config fields used:
//   - BaseURL: OpenRouter API base URL (default: "https://openrouter.ai/api/v1")
//   - APIKey: OpenRouter API key (required)
//   - Model: model to use, with vendor prefix (default: "anthropic/claude-sonnet-4.5")
func NewOpenRouterProvider(cfg Config) (*OpenRouterProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "anthropic/claude-sonnet-4.5"
	}

	return &OpenRouterProvider{OpenAIProvider: newOpenAICompatible(cfg, "OpenRouter")}, nil
}
