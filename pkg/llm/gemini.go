package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when a request names no model.
const DefaultGeminiModel = "gemini-3-flash-preview"

// GeminiProvider implements the Provider interface using the Gemini SDK.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider.
// Returns ErrNotConfigured if the API key is empty or the client
// cannot be constructed.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{client: client}, nil
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Client returns the underlying SDK client, for callers that need
// other Gemini services such as embeddings.
func (p *GeminiProvider) Client() *genai.Client {
	return p.client
}

// Complete generates a completion.
func (p *GeminiProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if p == nil || p.client == nil {
		return nil, ErrNotConfigured
	}

	model := req.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := genai.RoleUser
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	result, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 {
		return nil, &ProviderError{
			Provider: "gemini",
			Code:     "empty_response",
			Message:  "no candidates in response",
		}
	}

	var text string
	if result.Candidates[0].Content != nil {
		for _, part := range result.Candidates[0].Content.Parts {
			if part != nil && part.Text != "" {
				text += part.Text
			}
		}
	}

	resp := &CompletionResponse{
		Model:   model,
		Content: text,
	}
	if result.UsageMetadata != nil {
		resp.Usage = TokenUsage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	return resp, nil
}
