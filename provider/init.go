package provider

import (
	"context"
	"fmt"
	"time"

	"streamchat/config"
	"streamchat/model"
)

// FromConfig creates the single provider instance the server runs with.
//
// The provider package owns the provider lifecycle, so mapping from the
// application config to a factory Config lives here rather than in config or
// main. The returned Provider is handed to the HTTP layer explicitly; nothing
// caches it globally.
func FromConfig(cfg *config.Config) (model.Provider, error) {
	providerType := MapProviderIDToType(cfg.ProviderType)

	p, err := NewProvider(Config{
		Type:         providerType,
		BaseURL:      cfg.BaseURL,
		Model:        cfg.Model,
		APIKey:       cfg.APIKey,
		SystemPrompt: cfg.SystemPrompt,
		MaxTokens:    cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider %s: %w", providerType, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Initialized provider: %s (model: %s)", providerType, p.GetModel())
	}
	return p, nil
}

// Check pings the provider with a bounded timeout.
func Check(ctx context.Context, p model.Provider, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Provider %s ping successful", p.GetModel())
	}
	return nil
}
