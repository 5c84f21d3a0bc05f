package model

import (
	"time"
)

// Source identifies where a lead was captured.
type Source string

const (
	SourceChatbot     Source = "chatbot"
	SourceContactForm Source = "contact_form"
)

// Label is the human name of the source used in lead emails.
func (s Source) Label() string {
	if s == SourceChatbot {
		return "Zyora AI"
	}
	return "Contact Form"
}

// ContactRequest is the body of the contact email function.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Message string `json:"message"`
	Source  Source `json:"source"`
}

// ContactResponse acknowledges a delivered lead.
type ContactResponse struct {
	Success bool          `json:"success"`
	Data    *ContactReply `json:"data,omitempty"`
}

// ContactReply carries delivery identifiers.
type ContactReply struct {
	LeadID  string `json:"lead_id"`
	EmailID string `json:"id"`
}

// Lead is a captured contact request as recorded by the site.
type Lead struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Company    string    `json:"company,omitempty"`
	Message    string    `json:"message"`
	Source     Source    `json:"source"`
	ReceivedAt time.Time `json:"received_at"`
	EmailID    string    `json:"email_id,omitempty"`
}
