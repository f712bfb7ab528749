package session

import (
	"testing"

	"chatbot-go/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestExtractReply(t *testing.T) {
	tests := []struct {
		name string
		resp *llm.ChatResponse
		want string
	}{
		{"string content", &llm.ChatResponse{Message: &llm.ResponseMessage{Content: llm.TextContent("ok")}}, "ok"},
		{"text block", &llm.ChatResponse{Message: &llm.ResponseMessage{Content: llm.BlockContent(llm.ContentBlock{Type: "text", Text: "ok"})}}, "ok"},
		{"first non-empty block", &llm.ChatResponse{Message: &llm.ResponseMessage{Content: llm.BlockContent(llm.ContentBlock{}, llm.ContentBlock{Text: "second"})}}, "second"},
		{"block without text", &llm.ChatResponse{Message: &llm.ResponseMessage{Content: llm.BlockContent(llm.ContentBlock{})}}, NoResponseContent},
		{"empty string falls through to blocks", &llm.ChatResponse{Message: &llm.ResponseMessage{Content: llm.MessageContent{Text: new(string), Blocks: []llm.ContentBlock{{Text: "b"}}}}}, "b"},
		{"null content", &llm.ChatResponse{Message: &llm.ResponseMessage{}}, NoResponseContent},
		{"no message", &llm.ChatResponse{}, NoResponseContent},
		{"nil response", nil, NoResponseContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractReply(tt.resp))
		})
	}
}
