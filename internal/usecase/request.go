package usecase

import (
	"bytes"
	"encoding/json"

	"github.com/jans-saya/DOIT/internal/domain"
)

// chatRequest is the decoded /api/chat payload.
type chatRequest struct {
	Messages []domain.ChatMessage
	System   string
}

// parseChatRequest applies the payload rules in order: a body that is empty,
// not JSON, not an object, or an empty object carries no data; an object
// without a usable non-empty messages array carries no messages. Only these
// two outcomes are possible before the provider is called.
func parseChatRequest(body []byte) (chatRequest, *Error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return chatRequest{}, newError(ErrorNoData, "empty_body", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return chatRequest{}, newError(ErrorNoData, "invalid_json", err)
	}
	if len(fields) == 0 {
		return chatRequest{}, newError(ErrorNoData, "empty_object", nil)
	}

	var messages []domain.ChatMessage
	if raw, ok := fields["messages"]; ok {
		if err := json.Unmarshal(raw, &messages); err != nil {
			return chatRequest{}, newError(ErrorNoMessages, "invalid_messages", err)
		}
	}
	if len(messages) == 0 {
		return chatRequest{}, newError(ErrorNoMessages, "empty_messages", nil)
	}

	var system string
	if raw, ok := fields["system"]; ok {
		// A non-string system prompt is treated as omitted.
		_ = json.Unmarshal(raw, &system)
	}
	if system == "" {
		system = DefaultSystemPrompt
	}

	return chatRequest{Messages: messages, System: system}, nil
}
