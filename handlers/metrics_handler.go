package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/internal/observability"
	"github.com/easymo/generation-control-plane/services/audit"
	"github.com/easymo/generation-control-plane/utils"
)

// MetricsHandler exposes decision counters and audit pipeline stats for the
// ops dashboard.
type MetricsHandler struct {
	metrics *observability.CounterMetrics
	audit   *audit.Service
	logger  *zap.Logger
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metrics *observability.CounterMetrics, auditSvc *audit.Service, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		metrics: metrics,
		audit:   auditSvc,
		logger:  logger,
	}
}

// HandleGetDecisionMetrics handles GET /api/v1/metrics/decisions
func (h *MetricsHandler) HandleGetDecisionMetrics(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"counters": h.metrics.Snapshot(),
	}
	if h.audit != nil {
		response["audit"] = h.audit.GetStats()
	}

	_ = utils.WriteJSON(w, http.StatusOK, response)
}
