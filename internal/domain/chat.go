package domain

import (
	"encoding/json"
	"strconv"
)

// ChatMessage is the provider-agnostic chat message shape accepted from
// callers and forwarded to the provider. Content is kept raw so both plain
// strings and content-block arrays pass through untouched.
type ChatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// TextMessage builds a ChatMessage whose content is a plain string.
func TextMessage(role, text string) ChatMessage {
	return ChatMessage{Role: role, Content: json.RawMessage(strconv.Quote(text))}
}

// CompletionRequest is a single non-streaming completion call.
type CompletionRequest struct {
	Model     string
	MaxTokens int
	System    string
	Messages  []ChatMessage
}

// ContentBlock is one block of provider output.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Usage holds the provider-reported token counters.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Completion is the structured provider response.
type Completion struct {
	ID         string
	Model      string
	Role       string
	StopReason string
	Content    []ContentBlock
	Usage      Usage
}

// FirstText returns the text of the first content block.
func (c Completion) FirstText() (string, bool) {
	if len(c.Content) == 0 {
		return "", false
	}
	return c.Content[0].Text, true
}
