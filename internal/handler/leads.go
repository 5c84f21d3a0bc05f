package handler

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	natsclient "github.com/zyora-ai/site/internal/nats"
	"github.com/zyora-ai/site/internal/service"
	"github.com/zyora-ai/site/pkg/logger"
)

// LeadsHandler lists recorded leads for the agency team.
type LeadsHandler struct {
	leadService *service.LeadService
	logger      *logger.Logger
}

// NewLeadsHandler creates a new leads handler.
func NewLeadsHandler(leadSvc *service.LeadService, log *logger.Logger) *LeadsHandler {
	return &LeadsHandler{
		leadService: leadSvc,
		logger:      log,
	}
}

// ListLeadsResponse is a page of recorded leads.
type ListLeadsResponse struct {
	Leads        []natsclient.RecordedLead `json:"leads"`
	HasMore      bool                      `json:"has_more"`
	LastSequence uint64                    `json:"last_sequence"`
}

// List handles GET /functions/v1/leads
// Supports ?after_sequence=N&limit=M for paging
func (h *LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	afterSequence := uint64(0)
	limit := 50

	if seq := r.URL.Query().Get("after_sequence"); seq != "" {
		if parsed, err := strconv.ParseUint(seq, 10, 64); err == nil {
			afterSequence = parsed
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	leads, hasMore, err := h.leadService.Recent(r.Context(), afterSequence, limit)
	if errors.Is(err, service.ErrLeadLogDisabled) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}

	resp := &ListLeadsResponse{
		Leads:        leads,
		HasMore:      hasMore,
		LastSequence: afterSequence,
	}
	if resp.Leads == nil {
		resp.Leads = []natsclient.RecordedLead{}
	}
	if n := len(leads); n > 0 {
		resp.LastSequence = leads[n-1].Sequence
	}
	writeJSON(w, http.StatusOK, resp)
}
