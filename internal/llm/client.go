// Package llm provides generation engine interfaces and implementations.
package llm

import (
	"context"
)

// StreamCallback is called for each text fragment during streaming, in
// generation order. Returning an error aborts the stream.
type StreamCallback func(fragment string, index int) error

// CompletionRequest represents a streaming completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// ChatMessage represents a chat message for the engine.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a finished completion.
type CompletionResponse struct {
	Content    string
	Model      string
	StopReason string
	LatencyMs  int64
}

// Client is the interface for generation engine providers. The engine is the
// sole source of reply content; callers only relay and concatenate.
type Client interface {
	// CompleteStream sends a streaming completion request, invoking the
	// callback per fragment as it arrives.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of generation engine provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a new engine client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return NewAnthropicClient(apiKey)
	}
}
