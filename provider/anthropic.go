package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"streamchat/config"
	"streamchat/model"
)

// AnthropicProvider implements the Provider interface using Anthropic's official API.
// It uses the official Anthropic Go SDK for direct Claude API access.
type AnthropicProvider struct {
	client       *anthropic.Client
	model        anthropic.Model
	baseURL      string
	systemPrompt string
	maxTokens    int64
}

// NewAnthropicProvider creates a new Anthropic provider instance.
//
// Config fields used:
//   - BaseURL: Anthropic API base URL (default: "https://api.anthropic.com")
//   - APIKey: Anthropic API key (required)
//   - Model: model to use (default: "claude-sonnet-4-5-20250929")
//
// Returns an error if the API key is missing.
func NewAnthropicProvider(cfg Config) (*AnthropicProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	anthropicModel := anthropic.ModelClaudeSonnet4_5_20250929
	if cfg.Model != "" {
		anthropicModel = anthropic.Model(cfg.Model)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(cfg.APIKey),
	)

	return &AnthropicProvider{
		client:       &client,
		model:        anthropicModel,
		baseURL:      baseURL,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.maxTokens(),
	}, nil
}

// Stream implements Provider.Stream.
func (p *AnthropicProvider) Stream(ctx context.Context, turns []model.Turn, callback model.StreamCallback) error {
	messages, system := ConvertToAnthropicMessages(turns)

	// Configured prompt first, then any system turns from the conversation
	if p.systemPrompt != "" {
		system = append([]anthropic.TextBlockParam{{Text: p.systemPrompt}}, system...)
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: p.maxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()

		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch deltaVariant := eventVariant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if callback == nil || deltaVariant.Text == "" {
					continue
				}
				if err := callback(deltaVariant.Text); err != nil {
					return err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Anthropic] stream failed: %v", err)
		}
		return fmt.Errorf("Anthropic streaming error: %w", err)
	}

	return nil
}

// GetModel implements Provider.GetModel.
func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

// Ping implements Provider.Ping by attempting to create a minimal request.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	// Anthropic doesn't have a ping/health endpoint, so we make a minimal request
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})

	if err != nil {
		return fmt.Errorf("Anthropic ping failed: %w", err)
	}
	return nil
}
