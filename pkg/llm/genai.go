package llm

import (
	"context"
	"fmt"

	"chatbot-go/internal/config"

	"google.golang.org/genai"
)

// GenAIClient answers chat calls with Google's Gemini API.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// NewGenAIClient creates a Gemini-backed client. An API key is required.
func NewGenAIClient(ctx context.Context, cfg config.LLMConfig) (*GenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIClient{client: client, model: cfg.Model}, nil
}

// Chat sends prompt as one user content and maps every candidate part to a block.
func (c *GenAIClient) Chat(ctx context.Context, prompt string, opts ChatOptions) (*ChatResponse, error) {
	if opts.TestMode {
		return testModeResponse(), nil
	}
	model := opts.Model
	if model == "" {
		model = c.model
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return &ChatResponse{}, nil
	}

	parts := result.Candidates[0].Content.Parts
	blocks := make([]ContentBlock, 0, len(parts))
	for _, p := range parts {
		if p == nil {
			continue
		}
		blocks = append(blocks, ContentBlock{Type: "text", Text: p.Text})
	}
	return &ChatResponse{Message: &ResponseMessage{Role: "assistant", Content: BlockContent(blocks...)}}, nil
}
