// Package mailer renders lead notification emails and delivers them.
package mailer

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/zyora-ai/site/internal/model"
	"github.com/zyora-ai/site/pkg/logger"
)

//go:embed lead.html
var leadTemplate string

var leadHTML = template.Must(template.New("lead").Parse(leadTemplate))

const replySubject = "Re: Your inquiry to Zyora AI Agency"

// Message is an email ready for delivery.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

// Sender delivers a message and returns the provider's message ID.
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// Subject builds the subject line for a lead notification.
func Subject(lead *model.Lead) string {
	s := "New Lead: " + lead.Name
	if lead.Company != "" {
		s += " from " + lead.Company
	}
	return s + " - via " + lead.Source.Label()
}

// RenderLead renders the HTML body for a lead. All lead fields are escaped.
func RenderLead(lead *model.Lead) (string, error) {
	var buf bytes.Buffer
	err := leadHTML.Execute(&buf, struct {
		Lead         *model.Lead
		SourceLabel  string
		Received     string
		ReplySubject string
	}{
		Lead:         lead,
		SourceLabel:  lead.Source.Label(),
		Received:     lead.ReceivedAt.UTC().Format("Monday, January 2, 2006 15:04 MST"),
		ReplySubject: replySubject,
	})
	if err != nil {
		return "", fmt.Errorf("render lead email: %w", err)
	}
	return buf.String(), nil
}

// LeadMailer turns leads into notification emails for the agency inbox.
type LeadMailer struct {
	sender Sender
	from   string
	to     []string
}

// NewLeadMailer creates a lead mailer.
func NewLeadMailer(sender Sender, from string, to ...string) *LeadMailer {
	return &LeadMailer{sender: sender, from: from, to: to}
}

// Notify sends the notification for lead and returns the message ID.
// Replies go straight to the lead.
func (m *LeadMailer) Notify(ctx context.Context, lead *model.Lead) (string, error) {
	html, err := RenderLead(lead)
	if err != nil {
		return "", err
	}
	return m.sender.Send(ctx, &Message{
		From:    m.from,
		To:      m.to,
		Subject: Subject(lead),
		HTML:    html,
		ReplyTo: lead.Email,
	})
}

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client  *resend.Client
	timeout time.Duration
}

// NewResendSender creates a Resend-backed sender.
func NewResendSender(client *resend.Client) (*ResendSender, error) {
	if client == nil {
		return nil, errors.New("resend client is required")
	}
	return &ResendSender{client: client, timeout: 15 * time.Second}, nil
}

// NewResendSenderFromKey creates a sender for an API key.
func NewResendSenderFromKey(apiKey string) (*ResendSender, error) {
	if apiKey == "" {
		return nil, errors.New("Resend API key is required")
	}
	return NewResendSender(resend.NewClient(apiKey))
}

// Send implements Sender.
func (s *ResendSender) Send(ctx context.Context, msg *Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	return resp.Id, nil
}

// LogSender logs messages instead of delivering them. It stands in for
// Resend when no API key is configured.
type LogSender struct {
	logger *logger.Logger
}

// NewLogSender creates a logging sender.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{logger: log}
}

// Send implements Sender.
func (s *LogSender) Send(_ context.Context, msg *Message) (string, error) {
	id := "logged-" + uuid.NewString()
	s.logger.Info("email not sent, no mail provider configured",
		zap.String("id", id),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("reply_to", msg.ReplyTo),
	)
	return id, nil
}
