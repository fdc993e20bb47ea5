package model

import "context"

// Provider abstracts LLM provider implementations (Anthropic, OpenAI,
// OpenRouter, Ollama) behind provider-agnostic turns.
//
// This interface is defined in the model package (not provider package) to avoid
// import cycles: provider implementations import model, and the server can hold a
// Provider without importing the provider package.
type Provider interface {
	// Stream sends the turns and invokes callback once per text fragment, in
	// arrival order. A non-nil error from callback aborts the stream and is
	// returned.
	Stream(ctx context.Context, turns []Turn, callback StreamCallback) error

	// GetModel returns the model name used for API calls.
	GetModel() string

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

// StreamCallback is called for each fragment of a streamed response.
type StreamCallback func(fragment string) error
