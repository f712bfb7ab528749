package session

import "chatbot-go/pkg/llm"

// NoResponseContent is shown when a chat response carries no text.
const NoResponseContent = "No response content"

// ExtractReply returns the plain text content of resp, else the first content
// block with text, else NoResponseContent.
func ExtractReply(resp *llm.ChatResponse) string {
	if resp == nil || resp.Message == nil {
		return NoResponseContent
	}
	c := resp.Message.Content
	if c.Text != nil && *c.Text != "" {
		return *c.Text
	}
	for _, b := range c.Blocks {
		if b.Text != "" {
			return b.Text
		}
	}
	return NoResponseContent
}
