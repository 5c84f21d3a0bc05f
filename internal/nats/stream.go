package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/zyora-ai/site/internal/model"
)

const (
	// StreamName is the name of the leads stream.
	StreamName = "LEADS"

	// SubjectPrefix is the prefix for all lead subjects.
	SubjectPrefix = "leads"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	js jetstream.JetStream
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{js: client.JetStream()}
}

// EnsureStream ensures the leads stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	_, err := m.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = m.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      2 * 365 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  10 * time.Minute,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Leads captured by the contact form and the chat assistant",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// LeadSubject returns the subject for a lead.
func LeadSubject(source model.Source) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, source)
}

// PublishLead records a lead. The lead ID is the message ID so a retried
// publish is not stored twice.
func (m *StreamManager) PublishLead(ctx context.Context, lead *model.Lead) (uint64, error) {
	data, err := json.Marshal(lead)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal lead: %w", err)
	}

	ack, err := m.js.Publish(ctx, LeadSubject(lead.Source), data, jetstream.WithMsgID(lead.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to publish lead: %w", err)
	}

	return ack.Sequence, nil
}

// RecordedLead is a lead with its stream position.
type RecordedLead struct {
	model.Lead
	Sequence uint64 `json:"sequence"`
}

// RecentLeads returns up to limit leads stored after afterSequence, and
// whether more may follow.
func (m *StreamManager) RecentLeads(ctx context.Context, afterSequence uint64, limit int) ([]RecordedLead, bool, error) {
	consumerConfig := jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{SubjectPrefix + ".>"},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := m.js.OrderedConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch leads: %w", err)
	}

	var leads []RecordedLead
	for msg := range batch.Messages() {
		var lead RecordedLead
		if err := json.Unmarshal(msg.Data(), &lead.Lead); err != nil {
			continue
		}
		if meta, err := msg.Metadata(); err == nil {
			lead.Sequence = meta.Sequence.Stream
		}
		leads = append(leads, lead)
	}

	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, jetstream.ErrNoMessages) {
		return nil, false, fmt.Errorf("batch error: %w", err)
	}

	return leads, len(leads) == limit, nil
}
