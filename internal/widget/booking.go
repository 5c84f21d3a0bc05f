package widget

import (
	"fmt"
	"strings"

	"github.com/zyora-ai/site/internal/model"
)

// Step is the position inside the booking flow.
type Step int

const (
	StepName Step = iota
	StepEmail
	StepCompany
	StepMessage
	StepConfirm
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepName:
		return "name"
	case StepEmail:
		return "email"
	case StepCompany:
		return "company"
	case StepMessage:
		return "message"
	case StepConfirm:
		return "confirm"
	case StepComplete:
		return "complete"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

const (
	promptStart    = "Let's schedule your consultation. First, what's your full name?"
	promptEmail    = "Thank you, %s. What's your email address?"
	promptBadEmail = "That doesn't appear to be a valid email. Please try again."
	promptCompany  = "What's your company name? (Type 'skip' if not applicable)"
	promptMessage  = "What would you like to discuss on the call? Share your main challenge or goal."
	promptSummary  = "Here's a summary:\n\nName: %s\nEmail: %s\nCompany: %s\nMessage: %s\n\nShould I submit this? (Yes/No)"
	replySubmitted = "Submitted successfully. Our team will reach out within 24 hours. Is there anything else I can help you with?"
	replyFailed    = "There was an error. Please try again or email us directly at %s"
	replyDeclined  = "No problem. Is there anything else I can help you with?"
)

// Draft is the lead being collected.
type Draft struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// Transition describes what one input did to the booking flow.
type Transition struct {
	// Reply is the assistant prompt or outcome to show. Empty when Submit is set.
	Reply string
	// Submit asks the caller to send the draft.
	Submit bool
	// Declined means the flow ended without submitting.
	Declined bool
}

// Booking is the five-step lead capture state machine.
type Booking struct {
	step  Step
	draft Draft
}

// Step returns the current step.
func (b *Booking) Step() Step { return b.step }

// Draft returns a copy of the collected fields.
func (b *Booking) Draft() Draft { return b.draft }

// Reset clears the draft and rewinds to the name step.
func (b *Booking) Reset() {
	b.step = StepName
	b.draft = Draft{}
}

// Advance consumes one user input.
func (b *Booking) Advance(input string) Transition {
	value := strings.TrimSpace(input)

	switch b.step {
	case StepName:
		b.draft.Name = value
		b.step = StepEmail
		return Transition{Reply: fmt.Sprintf(promptEmail, value)}

	case StepEmail:
		if !validEmail(value) {
			return Transition{Reply: promptBadEmail}
		}
		b.draft.Email = value
		b.step = StepCompany
		return Transition{Reply: promptCompany}

	case StepCompany:
		if strings.EqualFold(value, "skip") {
			value = ""
		}
		b.draft.Company = value
		b.step = StepMessage
		return Transition{Reply: promptMessage}

	case StepMessage:
		b.draft.Message = value
		b.step = StepConfirm
		return Transition{Reply: b.summary()}

	case StepConfirm:
		if strings.Contains(strings.ToLower(value), "yes") {
			b.step = StepComplete
			return Transition{Submit: true}
		}
		b.Reset()
		return Transition{Reply: replyDeclined, Declined: true}
	}

	return Transition{}
}

// Submitted completes the flow after the lead was accepted.
func (b *Booking) Submitted() {
	b.Reset()
}

// SubmitFailed returns to the confirm step with the draft intact.
func (b *Booking) SubmitFailed() {
	if b.step == StepComplete {
		b.step = StepConfirm
	}
}

// Request builds the contact payload for the current draft.
func (b *Booking) Request() *model.ContactRequest {
	return &model.ContactRequest{
		Name:    b.draft.Name,
		Email:   b.draft.Email,
		Company: b.draft.Company,
		Message: b.draft.Message,
		Source:  model.SourceChatbot,
	}
}

func (b *Booking) summary() string {
	company := b.draft.Company
	if company == "" {
		company = "Not provided"
	}
	return fmt.Sprintf(promptSummary, b.draft.Name, b.draft.Email, company, b.draft.Message)
}

func validEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}
