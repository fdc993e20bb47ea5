package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"streamchat/config"
	"streamchat/model"
)

// OpenAIProvider implements the Provider interface using OpenAI's official API.
// OpenRouterProvider reuses it with a different endpoint.
type OpenAIProvider struct {
	client       openai.Client
	model        string
	baseURL      string
	systemPrompt string
	maxTokens    int64
	label        string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// Config fields used:
//   - BaseURL: OpenAI API base URL (default: "https://api.openai.com/v1")
//   - APIKey: OpenAI API key (required)
//   - Model: model to use (default: "gpt-4o-mini")
//
// Returns an error if the API key is missing.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return newOpenAICompatible(cfg, "OpenAI"), nil
}

func newOpenAICompatible(cfg Config, label string) *OpenAIProvider {
	client := openai.NewClient(
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
	)

	return &OpenAIProvider{
		client:       client,
		model:        cfg.Model,
		baseURL:      cfg.BaseURL,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.maxTokens(),
		label:        label,
	}
}

// Stream implements Provider.Stream.
func (p *OpenAIProvider) Stream(ctx context.Context, turns []model.Turn, callback model.StreamCallback) error {
	params := openai.ChatCompletionNewParams{
		Messages:            ConvertToOpenAIMessages(withSystemPrompt(p.systemPrompt, turns)),
		Model:               openai.ChatModel(p.model),
		MaxCompletionTokens: openai.Int(p.maxTokens),
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if callback == nil {
			continue
		}
		if err := callback(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}

	if err := stream.Err(); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[%s] stream failed: %v", p.label, err)
		}
		return fmt.Errorf("%s streaming error: %w", p.label, err)
	}

	return nil
}

// GetModel implements Provider.GetModel.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}

// Ping implements Provider.Ping by attempting to list models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	_, err := p.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("%s ping failed: %w", p.label, err)
	}
	return nil
}
