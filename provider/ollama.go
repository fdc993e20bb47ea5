package provider

import (
	"context"
	"fmt"

	"streamchat/model"
	"streamchat/ollama"
)

// OllamaProvider wraps the ollama.Client to implement the Provider interface.
//
// This provider handles the conversion from provider-agnostic turns to Ollama's
// api.Message, including decoding image parts into raw bytes.
type OllamaProvider struct {
	client       *ollama.Client
	systemPrompt string
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Config fields used:
//   - BaseURL: The Ollama server URL. If empty, defaults to "http://localhost:11434".
//   - Model: The model name to use. If empty, defaults to "llama3.2-vision:latest".
//
// Returns an error if the BaseURL is invalid.
func NewOllamaProvider(cfg Config) (*OllamaProvider, error) {
	client, err := ollama.NewClient(cfg.BaseURL, cfg.Model, cfg.maxTokens())
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &OllamaProvider{
		client:       client,
		systemPrompt: cfg.SystemPrompt,
	}, nil
}

// Stream implements Provider.Stream.
//
// Example:
//
//	turns := []model.Turn{{Role: model.RoleUser, Content: "Hello!"}}
//	err := p.Stream(ctx, turns, func(fragment string) error {
//	    fmt.Print(fragment)
//	    return nil
//	})
func (p *OllamaProvider) Stream(ctx context.Context, turns []model.Turn, callback model.StreamCallback) error {
	messages := ConvertToOllamaMessages(withSystemPrompt(p.systemPrompt, turns))

	err := p.client.Chat(ctx, messages, func(chunk string) error {
		if callback == nil || chunk == "" {
			return nil
		}
		return callback(chunk)
	})
	if err != nil {
		return fmt.Errorf("Ollama streaming error: %w", err)
	}
	return nil
}

// GetModel implements Provider.GetModel (direct passthrough).
func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

// Ping implements Provider.Ping (direct passthrough).
//
// Checks if the Ollama server is reachable by making a lightweight API call.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}
