package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatbot-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageContentUnmarshal(t *testing.T) {
	var m ResponseMessage

	require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant","content":"ok"}`), &m))
	require.NotNil(t, m.Content.Text)
	assert.Equal(t, "ok", *m.Content.Text)
	assert.Nil(t, m.Content.Blocks)

	require.NoError(t, json.Unmarshal([]byte(`{"content":[{"type":"text","text":"ok"},{}]}`), &m))
	assert.Nil(t, m.Content.Text)
	require.Len(t, m.Content.Blocks, 2)
	assert.Equal(t, "ok", m.Content.Blocks[0].Text)
	assert.Equal(t, "", m.Content.Blocks[1].Text)

	require.NoError(t, json.Unmarshal([]byte(`{"content":null}`), &m))
	assert.Nil(t, m.Content.Text)
	assert.Nil(t, m.Content.Blocks)

	assert.Error(t, json.Unmarshal([]byte(`{"content":42}`), &m))
}

func TestMessageContentMarshal(t *testing.T) {
	b, err := json.Marshal(TextContent("hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `"hi"`, string(b))

	b, err = json.Marshal(BlockContent(ContentBlock{Text: "hi"}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text":"hi"}]`, string(b))

	b, err = json.Marshal(MessageContent{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestOpenAIClientChat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"hello there"}]}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(config.LLMConfig{BaseURL: srv.URL + "/", APIKey: "secret", Model: "fallback-model"})
	resp, err := c.Chat(context.Background(), "hi", ChatOptions{Model: "claude-3-5-sonnet-latest"})
	require.NoError(t, err)

	assert.Equal(t, "claude-3-5-sonnet-latest", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, chatMessage{Role: "user", Content: "hi"}, got.Messages[0])
	assert.False(t, got.Stream)

	require.NotNil(t, resp.Message)
	require.Len(t, resp.Message.Content.Blocks, 1)
	assert.Equal(t, "hello there", resp.Message.Content.Blocks[0].Text)
}

func TestOpenAIClientNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	resp, err := NewOpenAIClient(config.LLMConfig{BaseURL: srv.URL}).Chat(context.Background(), "hi", ChatOptions{})
	require.NoError(t, err)
	assert.Nil(t, resp.Message)
}

func TestOpenAIClientNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(config.LLMConfig{BaseURL: srv.URL}).Chat(context.Background(), "hi", ChatOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestOpenAIClientTestModeSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	resp, err := NewOpenAIClient(config.LLMConfig{BaseURL: srv.URL}).Chat(context.Background(), "hi", ChatOptions{TestMode: true})
	require.NoError(t, err)
	assert.False(t, called)
	require.NotNil(t, resp.Message.Content.Text)
	assert.Equal(t, TestModeReply, *resp.Message.Content.Text)
}

func TestNewClientProviders(t *testing.T) {
	c, err := NewClient(config.LLMConfig{Provider: "openai"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	_, err = NewClient(config.LLMConfig{Provider: "genai"})
	assert.Error(t, err, "genai without api key")

	_, err = NewClient(config.LLMConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}
