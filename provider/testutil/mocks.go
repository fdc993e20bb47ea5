package testutil

import (
	"context"
	"sync"

	"streamchat/model"
)

// MockProvider implements model.Provider for testing
type MockProvider struct {
	// Configurable responses
	StreamFunc func(ctx context.Context, turns []model.Turn, callback model.StreamCallback) error
	PingFunc   func(ctx context.Context) error

	mu           sync.Mutex
	calls        [][]model.Turn
	currentModel string
}

// NewMockProvider creates a mock provider with default implementations
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{
		currentModel: modelName,
	}
	mock.StreamFunc = mock.defaultStream
	mock.PingFunc = mock.defaultPing
	return mock
}

// NewFragmentProvider returns a mock that streams the given fragments and
// then returns err (nil for a clean finish).
func NewFragmentProvider(err error, fragments ...string) *MockProvider {
	mock := NewMockProvider("mock-model")
	mock.StreamFunc = func(ctx context.Context, turns []model.Turn, callback model.StreamCallback) error {
		for _, f := range fragments {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := callback(f); err != nil {
				return err
			}
		}
		return err
	}
	return mock
}

func (m *MockProvider) defaultStream(ctx context.Context, turns []model.Turn, callback model.StreamCallback) error {
	// Default: echo back a mock response
	if len(turns) > 0 {
		return callback("Mock response")
	}
	return nil
}

func (m *MockProvider) defaultPing(ctx context.Context) error {
	return nil
}

func (m *MockProvider) Stream(ctx context.Context, turns []model.Turn, callback model.StreamCallback) error {
	m.mu.Lock()
	m.calls = append(m.calls, turns)
	m.mu.Unlock()
	return m.StreamFunc(ctx, turns, callback)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

// Calls returns the turns passed to every Stream call so far.
func (m *MockProvider) Calls() [][]model.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]model.Turn, len(m.calls))
	copy(out, m.calls)
	return out
}
