// Package model defines the wire types shared by the site functions and the
// chat widget.
package model

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one conversation turn.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of the chat function.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// ErrorResponse is the JSON body of every failed function call.
type ErrorResponse struct {
	Error string `json:"error"`
}
