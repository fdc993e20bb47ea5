package provider

import (
	"fmt"

	"streamchat/model"
)

// NewProvider builds the backend named by cfg.Type. A failed constructor
// yields a nil Provider, never a typed nil.
func NewProvider(cfg Config) (model.Provider, error) {
	var (
		p   model.Provider
		err error
	)

	switch cfg.Type {
	case ProviderTypeAnthropic:
		var ap *AnthropicProvider
		if ap, err = NewAnthropicProvider(cfg); err == nil {
			p = ap
		}
	case ProviderTypeOpenAI:
		var op *OpenAIProvider
		if op, err = NewOpenAIProvider(cfg); err == nil {
			p = op
		}
	case ProviderTypeOpenRouter:
		var rp *OpenRouterProvider
		if rp, err = NewOpenRouterProvider(cfg); err == nil {
			p = rp
		}
	case ProviderTypeOllama:
		var lp *OllamaProvider
		if lp, err = NewOllamaProvider(cfg); err == nil {
			p = lp
		}
	default:
		err = fmt.Errorf("unknown provider type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", cfg.Type, err)
	}
	return p, nil
}

// MapProviderIDToType converts the [provider] type from settings into a
// ProviderType. An empty id selects Anthropic; unknown ids pass through so
// NewProvider can reject them.
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case "", "anthropic":
		return ProviderTypeAnthropic
	case "openai":
		return ProviderTypeOpenAI
	case "openrouter":
		return ProviderTypeOpenRouter
	case "ollama":
		return ProviderTypeOllama
	default:
		return ProviderType(id)
	}
}
