package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/zyora-ai/site/internal/model"
	natsclient "github.com/zyora-ai/site/internal/nats"
	"github.com/zyora-ai/site/pkg/logger"
	"github.com/zyora-ai/site/pkg/metrics"
	"github.com/zyora-ai/site/pkg/tracing"
)

// ErrLeadLogDisabled is returned when leads are requested but no lead
// stream is configured.
var ErrLeadLogDisabled = errors.New("lead log is not configured")

// LeadNotifier delivers a lead to the agency inbox.
type LeadNotifier interface {
	Notify(ctx context.Context, lead *model.Lead) (string, error)
}

// LeadStore records leads and reads them back.
type LeadStore interface {
	PublishLead(ctx context.Context, lead *model.Lead) (uint64, error)
	RecentLeads(ctx context.Context, afterSequence uint64, limit int) ([]natsclient.RecordedLead, bool, error)
}

// LeadService handles contact requests from the site.
type LeadService struct {
	notifier LeadNotifier
	store    LeadStore
	logger   *logger.Logger
	now      func() time.Time
}

// NewLeadService creates a new lead service. store may be nil.
func NewLeadService(notifier LeadNotifier, store LeadStore, log *logger.Logger) *LeadService {
	return &LeadService{
		notifier: notifier,
		store:    store,
		logger:   log,
		now:      time.Now,
	}
}

// Submit turns a validated contact request into a lead, emails it and
// records it. A lead whose email fails is still recorded so it is not lost.
func (s *LeadService) Submit(ctx context.Context, req *model.ContactRequest) (*model.Lead, error) {
	ctx, span := tracing.Tracer("service").Start(ctx, "lead.submit")
	defer span.End()

	lead := &model.Lead{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Company:    strings.TrimSpace(req.Company),
		Message:    strings.TrimSpace(req.Message),
		Source:     req.Source,
		ReceivedAt: s.now().UTC(),
	}
	span.SetAttributes(
		attribute.String("lead.id", lead.ID),
		attribute.String("lead.source", string(lead.Source)),
	)

	s.logger.Info("contact request received",
		zap.String("lead_id", lead.ID),
		zap.String("source", string(lead.Source)),
		zap.Bool("has_company", lead.Company != ""),
	)

	emailID, sendErr := s.notifier.Notify(ctx, lead)
	lead.EmailID = emailID

	s.record(ctx, lead)

	if sendErr != nil {
		span.RecordError(sendErr)
		span.SetStatus(codes.Error, "lead email failed")
		metrics.RecordLead(string(lead.Source), "failed")
		s.logger.Error("lead email failed", zap.String("lead_id", lead.ID), zap.Error(sendErr))
		return nil, fmt.Errorf("failed to deliver lead: %w", sendErr)
	}

	metrics.RecordLead(string(lead.Source), "delivered")
	s.logger.Info("lead delivered", zap.String("lead_id", lead.ID), zap.String("email_id", emailID))

	return lead, nil
}

func (s *LeadService) record(ctx context.Context, lead *model.Lead) {
	if s.store == nil {
		return
	}
	seq, err := s.store.PublishLead(ctx, lead)
	if err != nil {
		metrics.LeadPublishFailures.Inc()
		s.logger.Warn("failed to record lead", zap.String("lead_id", lead.ID), zap.Error(err))
		return
	}
	s.logger.Debug("lead recorded", zap.String("lead_id", lead.ID), zap.Uint64("sequence", seq))
}

// Recent lists recorded leads after a stream sequence.
func (s *LeadService) Recent(ctx context.Context, afterSequence uint64, limit int) ([]natsclient.RecordedLead, bool, error) {
	if s.store == nil {
		return nil, false, ErrLeadLogDisabled
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	leads, hasMore, err := s.store.RecentLeads(ctx, afterSequence, limit)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, hasMore, nil
}
