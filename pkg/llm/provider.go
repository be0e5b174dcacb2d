// Package llm provides the LLM provider abstraction used by the PRP
// creation and review phases. The runner works without any provider
// configured; drafting and diff summaries degrade to templates.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider defines the interface for LLM backends.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete generates a completion.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a request to generate a completion.
type CompletionRequest struct {
	// Model is the model identifier. Empty uses the provider default.
	Model string `json:"model"`

	// System is the system prompt.
	System string `json:"system,omitempty"`

	// Messages is the conversation history.
	Messages []Message `json:"messages"`

	// MaxTokens limits the response length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0-1).
	Temperature float64 `json:"temperature,omitempty"`
}

// CompletionResponse is the response from a completion request.
type CompletionResponse struct {
	// Model is the model that generated the response.
	Model string `json:"model"`

	// Content is the text response.
	Content string `json:"content"`

	// Usage contains token counts.
	Usage TokenUsage `json:"usage"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Message represents a conversation message.
type Message struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message content.
	Content string `json:"content"`
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// ErrNotConfigured indicates no provider is available.
var ErrNotConfigured = errors.New("llm provider not configured")

// ProviderError represents a provider-specific error.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Provider, e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if the error is a rate limit error.
func IsRateLimitError(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code == "rate_limit" || pe.Code == "rate_limit_exceeded"
	}
	return false
}

// IsAuthError checks if the error is an authentication error.
func IsAuthError(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code == "authentication_error" || pe.Code == "invalid_api_key"
	}
	return false
}

// EstimateTokens gives a rough token estimate for prompt budgeting.
// Roughly 4 characters per token for English prose and code.
func EstimateTokens(content string) int {
	return len(content) / 4
}
