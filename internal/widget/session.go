package widget

import (
	"github.com/zyora-ai/site/internal/model"
)

// Session holds the finalized conversation turns sent upstream as context.
// The client is the only source of truth; nothing is truncated.
type Session struct {
	turns []model.ChatMessage
}

// AppendUserTurn records a user turn.
func (s *Session) AppendUserTurn(text string) {
	s.turns = append(s.turns, model.ChatMessage{Role: model.RoleUser, Content: text})
}

// AppendAssistantTurn records a directive-free assistant turn.
func (s *Session) AppendAssistantTurn(cleanText string) {
	s.turns = append(s.turns, model.ChatMessage{Role: model.RoleAssistant, Content: cleanText})
}

// History returns a copy of the recorded turns.
func (s *Session) History() []model.ChatMessage {
	out := make([]model.ChatMessage, len(s.turns))
	copy(out, s.turns)
	return out
}

// WithUserTurn returns the history plus a pending user turn, leaving the
// session unchanged.
func (s *Session) WithUserTurn(text string) []model.ChatMessage {
	out := make([]model.ChatMessage, len(s.turns), len(s.turns)+1)
	copy(out, s.turns)
	return append(out, model.ChatMessage{Role: model.RoleUser, Content: text})
}
