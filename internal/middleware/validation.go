package middleware

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zyora-ai/site/internal/model"
)

const (
	maxContentBytes = 16 * 1024
	maxMessages     = 100
	maxFieldBytes   = 1024
)

// ErrMissingContactFields is returned when a contact request lacks a
// required field.
var ErrMissingContactFields = errors.New("Name, email, and message are required")

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > maxContentBytes {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateMessages validates the conversation sent to the chat function.
func ValidateMessages(messages []model.ChatMessage) error {
	if len(messages) == 0 {
		return errors.New("messages are required")
	}
	if len(messages) > maxMessages {
		return errors.New("too many messages")
	}
	for i, msg := range messages {
		if msg.Role != model.RoleUser && msg.Role != model.RoleAssistant {
			return fmt.Errorf("message %d: invalid role %q", i, msg.Role)
		}
		if err := ValidateMessageContent(msg.Content); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

// ValidateContact validates a contact request and normalizes its source.
func ValidateContact(req *model.ContactRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Message) == "" {
		return ErrMissingContactFields
	}
	for _, field := range []string{req.Name, req.Email, req.Company} {
		if len(field) > maxFieldBytes {
			return errors.New("field exceeds maximum length")
		}
	}
	if err := ValidateMessageContent(req.Message); err != nil {
		return err
	}
	if req.Source != model.SourceChatbot {
		req.Source = model.SourceContactForm
	}
	return nil
}
