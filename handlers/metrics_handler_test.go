package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/internal/observability"
	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/repositories/memory"
	"github.com/easymo/generation-control-plane/services/audit"
)

func TestHandleGetDecisionMetrics(t *testing.T) {
	metrics := observability.NewCounterMetrics()
	metrics.RecordAdmission("campaign-a")
	metrics.RecordRejection("campaign-a", models.ReasonKillSwitch)

	auditSvc := audit.NewService(memory.NewRepositories(memory.NewStore()).AuditLogs, zap.NewNop(), audit.Config{BufferSize: 8, WorkerCount: 1})
	require.NoError(t, auditSvc.Start())
	defer func() { _ = auditSvc.Stop(time.Second) }()

	h := NewMetricsHandler(metrics, auditSvc, zap.NewNop())
	w := httptest.NewRecorder()
	h.HandleGetDecisionMetrics(w, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/decisions", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Counters []observability.MetricPoint `json:"counters"`
		Audit    audit.Stats                 `json:"audit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Counters)
	assert.True(t, resp.Audit.Started)
	assert.Equal(t, 8, resp.Audit.BufferSize)
}

func TestHandleGetDecisionMetricsWithoutAudit(t *testing.T) {
	h := NewMetricsHandler(observability.NewCounterMetrics(), nil, zap.NewNop())
	w := httptest.NewRecorder()
	h.HandleGetDecisionMetrics(w, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/decisions", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"audit"`)
}
