package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/aislecart-ai/shopping-assistant/internal/model"
)

// ValidateChatRequest validates a turn request body. Roles outside
// user/assistant and oversized content are rejected before any persistence
// or generation work happens.
func ValidateChatRequest(req *model.ChatRequest) error {
	for _, msg := range req.Messages {
		if msg.Role != string(model.RoleUser) && msg.Role != string(model.RoleAssistant) {
			return errors.New("message role must be user or assistant")
		}
		if err := ValidateMessageContent(msg.Content); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}
