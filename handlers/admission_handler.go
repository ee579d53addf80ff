package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/middleware"
	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/services/admission"
	"github.com/easymo/generation-control-plane/utils"
)

// AdmitRequest is the wire shape of an admission request.
type AdmitRequest struct {
	CampaignID       string            `json:"campaign_id" validate:"required,uuid"`
	FigureID         string            `json:"figure_id" validate:"required,uuid"`
	Prompt           string            `json:"prompt" validate:"required"`
	Country          string            `json:"country"`
	Region           string            `json:"region"`
	Locale           string            `json:"locale"`
	EstimatedCost    string            `json:"estimated_cost" validate:"required,money"`
	ExpectedOutputMB *float64          `json:"expected_output_mb,omitempty" validate:"omitempty,gte=0"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// RejectionResponse is the wire shape of a refused admission. Matched
// forbidden terms stay in the audit trail; they are never echoed here.
type RejectionResponse struct {
	Reason    models.RejectionReason `json:"reason"`
	Detail    string                 `json:"detail"`
	Retryable bool                   `json:"retryable,omitempty"`
}

// AdmissionHandler handles generation admission HTTP requests
type AdmissionHandler struct {
	admission *admission.Service
	logger    *zap.Logger
}

// NewAdmissionHandler creates a new AdmissionHandler
func NewAdmissionHandler(admissionSvc *admission.Service, logger *zap.Logger) *AdmissionHandler {
	return &AdmissionHandler{
		admission: admissionSvc,
		logger:    logger,
	}
}

// HandleAdmit handles POST /api/v1/generation/admit
func (h *AdmissionHandler) HandleAdmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var body AdmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if err := utils.ValidateStruct(&body); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	req, err := body.toGenerationRequest(requestID)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	req.RequesterID = middleware.GetRequesterIDFromContext(ctx)

	decision, err := h.admission.Admit(ctx, req)
	if err != nil {
		var rejection *admission.AdmissionError
		if errors.As(err, &rejection) {
			h.writeRejection(w, rejection)
			return
		}
		h.logger.Error("admission failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	_ = utils.WriteJSON(w, http.StatusCreated, decision)
}

// toGenerationRequest converts the wire shape to the domain request. The DTO
// validation already guarantees the UUID and decimal fields parse.
func (b *AdmitRequest) toGenerationRequest(requestID string) (*models.GenerationRequest, error) {
	campaignID, err := uuid.Parse(b.CampaignID)
	if err != nil {
		return nil, errors.New("campaign_id must be a valid UUID")
	}
	figureID, err := uuid.Parse(b.FigureID)
	if err != nil {
		return nil, errors.New("figure_id must be a valid UUID")
	}
	cost, err := decimal.NewFromString(b.EstimatedCost)
	if err != nil {
		return nil, errors.New("estimated_cost must be a decimal amount")
	}

	return &models.GenerationRequest{
		CampaignID:       campaignID,
		FigureID:         figureID,
		Prompt:           b.Prompt,
		Country:          b.Country,
		Region:           b.Region,
		Locale:           b.Locale,
		EstimatedCost:    cost,
		ExpectedOutputMB: b.ExpectedOutputMB,
		Metadata:         b.Metadata,
		RequestID:        requestID,
	}, nil
}

func (h *AdmissionHandler) writeRejection(w http.ResponseWriter, rejection *admission.AdmissionError) {
	if rejection.Retryable {
		w.Header().Set("Retry-After", "1")
	}
	_ = utils.WriteJSON(w, rejection.StatusCode, RejectionResponse{
		Reason:    rejection.Reason,
		Detail:    rejection.Detail,
		Retryable: rejection.Retryable,
	})
}
