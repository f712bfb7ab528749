// Package llm provides clients for the remote chat inference endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatbot-go/internal/config"
	"chatbot-go/pkg/log"
)

// TestModeReply is returned by every client when test mode is enabled.
const TestModeReply = "This is a test response. Test mode is enabled, no model was called."

// ChatOptions selects the model and whether the call runs in test mode.
type ChatOptions struct {
	Model    string
	TestMode bool
}

// Client defines the interface for an LLM client.
type Client interface {
	Chat(ctx context.Context, prompt string, opts ChatOptions) (*ChatResponse, error)
}

// ContentBlock is one element of a list-shaped message content.
type ContentBlock struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
}

// MessageContent holds either a plain text body or an ordered list of blocks.
// A JSON null leaves both unset.
type MessageContent struct {
	Text   *string
	Blocks []ContentBlock
}

// TextContent builds a MessageContent carrying a plain string.
func TextContent(s string) MessageContent {
	return MessageContent{Text: &s}
}

// BlockContent builds a MessageContent carrying a list of blocks.
func BlockContent(blocks ...ContentBlock) MessageContent {
	return MessageContent{Blocks: blocks}
}

// UnmarshalJSON accepts a string, an array of blocks or null.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*c = MessageContent{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		c.Text = &s
		return nil
	case '[':
		var blocks []ContentBlock
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return err
		}
		if blocks == nil {
			blocks = []ContentBlock{}
		}
		c.Blocks = blocks
		return nil
	}
	return fmt.Errorf("llm: unsupported message content %.32s", string(trimmed))
}

// MarshalJSON mirrors UnmarshalJSON.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	switch {
	case c.Text != nil:
		return json.Marshal(*c.Text)
	case c.Blocks != nil:
		return json.Marshal(c.Blocks)
	}
	return []byte("null"), nil
}

// ResponseMessage is the assistant message inside a ChatResponse.
type ResponseMessage struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// ChatResponse is the provider-neutral result of a chat call.
type ChatResponse struct {
	Message *ResponseMessage `json:"message"`
}

// NewClient creates the client selected by cfg.Provider.
func NewClient(cfg config.LLMConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAIClient(cfg), nil
	case "genai", "gemini":
		return NewGenAIClient(context.Background(), cfg)
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}

func testModeResponse() *ChatResponse {
	return &ChatResponse{Message: &ResponseMessage{Role: "assistant", Content: TextContent(TestModeReply)}}
}

// OpenAIClient talks to an OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewOpenAIClient creates a client for cfg.BaseURL.
func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	return &OpenAIClient{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatCompletion struct {
	Choices []struct {
		Message ResponseMessage `json:"message"`
	} `json:"choices"`
}

// Chat sends prompt as a single user message and returns the first choice.
func (c *OpenAIClient) Chat(ctx context.Context, prompt string, opts ChatOptions) (*ChatResponse, error) {
	if opts.TestMode {
		log.Debugw("llm test mode, skipping remote call", "model", opts.Model)
		return testModeResponse(), nil
	}
	model := opts.Model
	if model == "" {
		model = c.cfg.Model
	}

	reqBytes, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var completion chatCompletion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return &ChatResponse{}, nil
	}
	msg := completion.Choices[0].Message
	return &ChatResponse{Message: &msg}, nil
}
