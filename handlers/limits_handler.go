package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/repositories"
	"github.com/easymo/generation-control-plane/services"
	"github.com/easymo/generation-control-plane/services/ledger"
	"github.com/easymo/generation-control-plane/utils"
)

// LimitsResponse reports a campaign's spend position for the current UTC day.
type LimitsResponse struct {
	CampaignID   uuid.UUID        `json:"campaign_id"`
	Day          string           `json:"day"`
	Spend        decimal.Decimal  `json:"spend"`
	JobsCount    int              `json:"jobs_count"`
	DailyCostCap *decimal.Decimal `json:"daily_cost_cap,omitempty"`
	Headroom     *decimal.Decimal `json:"headroom,omitempty"`
	KillSwitch   bool             `json:"kill_switch"`
}

// LimitsHandler serves campaign spend status and the decision trail.
type LimitsHandler struct {
	campaigns repositories.CampaignRepository
	auditLogs repositories.AuditRepository
	ledger    *ledger.Service
	logger    *zap.Logger
}

// NewLimitsHandler creates a new LimitsHandler
func NewLimitsHandler(campaigns repositories.CampaignRepository, auditLogs repositories.AuditRepository, ledgerSvc *ledger.Service, logger *zap.Logger) *LimitsHandler {
	return &LimitsHandler{
		campaigns: campaigns,
		auditLogs: auditLogs,
		ledger:    ledgerSvc,
		logger:    logger,
	}
}

// HandleGetLimits handles GET /api/v1/generation/limits/{campaignID}
func (h *LimitsHandler) HandleGetLimits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	campaignID, err := uuid.Parse(chi.URLParam(r, "campaignID"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "campaignID must be a valid UUID", nil)
		return
	}

	campaign, err := h.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		if services.IsNotFoundError(err) {
			_ = utils.WriteNotFound(w, "campaign not found")
			return
		}
		h.logger.Error("failed to load campaign", zap.Error(err),
			zap.String("campaign_id", campaignID.String()))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	day := models.DayKey(time.Now().UTC())
	row, err := h.ledger.GetDay(ctx, campaignID, day)
	if err != nil {
		h.logger.Error("failed to load spend ledger", zap.Error(err),
			zap.String("campaign_id", campaignID.String()),
			zap.String("day", day))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	resp := LimitsResponse{
		CampaignID:   campaignID,
		Day:          day,
		Spend:        row.Spend,
		JobsCount:    row.JobsCount,
		DailyCostCap: campaign.DailyCostCap,
		KillSwitch:   campaign.KillSwitch,
	}
	if campaign.HasCap() {
		headroom := row.Headroom(*campaign.DailyCostCap)
		resp.Headroom = &headroom
	}

	_ = utils.WriteOK(w, resp)
}

// HandleGetDecisions handles GET /api/v1/generation/limits/{campaignID}/decisions
func (h *LimitsHandler) HandleGetDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	campaignID, err := uuid.Parse(chi.URLParam(r, "campaignID"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "campaignID must be a valid UUID", nil)
		return
	}

	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	logs, err := h.auditLogs.GetByCampaignID(ctx, campaignID, limit, offset)
	if err != nil {
		h.logger.Error("failed to load decision logs", zap.Error(err),
			zap.String("campaign_id", campaignID.String()))
		_ = utils.WriteInternalServerError(w, "")
		return
	}
	if logs == nil {
		logs = []*models.DecisionLog{}
	}

	_ = utils.WriteOK(w, map[string]interface{}{
		"campaign_id": campaignID,
		"decisions":   logs,
		"limit":       limit,
		"offset":      offset,
	})
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
