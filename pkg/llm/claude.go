package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	claudeAPIURL     = "https://api.anthropic.com/v1/messages"
	claudeAPIVersion = "2023-06-01"

	// DefaultClaudeModel is used when a request names no model.
	DefaultClaudeModel = "claude-sonnet-4-20250514"
)

// ClaudeProvider implements the Provider interface for Claude.
type ClaudeProvider struct {
	apiKey     string
	httpClient *http.Client
}

// NewClaudeProvider creates a new Claude provider.
func NewClaudeProvider(apiKey string) *ClaudeProvider {
	return &ClaudeProvider{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Name returns the provider name.
func (p *ClaudeProvider) Name() string {
	return "claude"
}

// Complete generates a completion.
func (p *ClaudeProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if p.apiKey == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(p.toClaudeRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", claudeAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", claudeAPIVersion)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.parseError(resp.StatusCode, respBody)
	}

	var claudeResp claudeResponse
	if err := json.Unmarshal(respBody, &claudeResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	var content string
	for _, block := range claudeResp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &CompletionResponse{
		Model:   claudeResp.Model,
		Content: content,
		Usage: TokenUsage{
			PromptTokens:     claudeResp.Usage.InputTokens,
			CompletionTokens: claudeResp.Usage.OutputTokens,
			TotalTokens:      claudeResp.Usage.InputTokens + claudeResp.Usage.OutputTokens,
		},
	}, nil
}

// claudeRequest is the messages API request format.
type claudeRequest struct {
	Model       string          `json:"model"`
	Messages    []claudeMessage `json:"messages"`
	System      string          `json:"system,omitempty"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// claudeResponse is the messages API response format.
type claudeResponse struct {
	ID         string               `json:"id"`
	Model      string               `json:"model"`
	Content    []claudeContentBlock `json:"content"`
	StopReason string               `json:"stop_reason"`
	Usage      claudeUsage          `json:"usage"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type claudeErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *ClaudeProvider) toClaudeRequest(req *CompletionRequest) *claudeRequest {
	messages := make([]claudeMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, claudeMessage{Role: msg.Role, Content: msg.Content})
	}

	model := req.Model
	if model == "" {
		model = DefaultClaudeModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	return &claudeRequest{
		Model:       model,
		Messages:    messages,
		System:      req.System,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}
}

func (p *ClaudeProvider) parseError(status int, body []byte) error {
	var errResp claudeErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Type != "" {
		return &ProviderError{
			Provider: "claude",
			Code:     errResp.Error.Type,
			Message:  errResp.Error.Message,
		}
	}
	return &ProviderError{
		Provider: "claude",
		Code:     fmt.Sprintf("http_%d", status),
		Message:  string(body),
	}
}
