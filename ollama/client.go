package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

type Client struct {
	client    *api.Client
	model     string
	baseURL   string
	maxTokens int64
}

type StreamCallback func(chunk string) error

func NewClient(baseURL, model string, maxTokens int64) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2-vision:latest"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid Ollama URL: %q needs a scheme and host", baseURL)
	}

	client := api.NewClient(parsedURL, http.DefaultClient)

	return &Client{
		client:    client,
		model:     model,
		baseURL:   baseURL,
		maxTokens: maxTokens,
	}, nil
}

// Chat sends a streaming chat request and calls callback for every partial
// response. A callback error stops the stream and is returned.
func (c *Client) Chat(ctx context.Context, messages []api.Message, callback StreamCallback) error {
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   func(b bool) *bool { return &b }(true),
	}
	if c.maxTokens > 0 {
		req.Options = map[string]any{"num_predict": c.maxTokens}
	}

	respFunc := func(resp api.ChatResponse) error {
		if callback != nil {
			return callback(resp.Message.Content)
		}
		return nil
	}

	return c.client.Chat(ctx, req, respFunc)
}

func (c *Client) GetModel() string {
	return c.model
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.client.List(ctx); err != nil {
		return fmt.Errorf("Ollama ping failed: %w", err)
	}
	return nil
}
