package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zyora-ai/site/internal/middleware"
	"github.com/zyora-ai/site/internal/model"
	"github.com/zyora-ai/site/internal/service"
	"github.com/zyora-ai/site/pkg/logger"
)

// ContactHandler delivers contact requests from the site and the chat
// assistant's booking flow.
type ContactHandler struct {
	leadService *service.LeadService
	logger      *logger.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(leadSvc *service.LeadService, log *logger.Logger) *ContactHandler {
	return &ContactHandler{
		leadService: leadSvc,
		logger:      log,
	}
}

// Send handles POST /functions/v1/send-contact-email
func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateContact(&req); err != nil {
		if !errors.Is(err, middleware.ErrMissingContactFields) {
			h.logger.Debug("contact request rejected", zap.Error(err))
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lead, err := h.leadService.Submit(ctx, &req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to send email")
		return
	}

	writeJSON(w, http.StatusOK, &model.ContactResponse{
		Success: true,
		Data: &model.ContactReply{
			LeadID:  lead.ID,
			EmailID: lead.EmailID,
		},
	})
}
