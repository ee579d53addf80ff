package observability

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easymo/generation-control-plane/models"
)

func TestCounterMetricsSnapshot(t *testing.T) {
	m := NewCounterMetrics()
	m.RecordAdmission("campaign-a")
	m.RecordAdmission("campaign-a")
	m.RecordRejection("campaign-a", models.ReasonKillSwitch)
	m.RecordRejection("campaign-b", models.ReasonDailyCapExceeded)
	m.RecordOutputSize("campaign-a", 2.5)
	m.RecordOutputSize("campaign-a", 1.5)

	points := m.Snapshot()
	require.Len(t, points, 4)

	byName := map[string][]MetricPoint{}
	for _, p := range points {
		byName[p.Name] = append(byName[p.Name], p)
	}

	require.Len(t, byName["admission_success"], 1)
	assert.Equal(t, 2.0, byName["admission_success"][0].Value)
	assert.Equal(t, "campaign-a", byName["admission_success"][0].Tags["campaign_id"])

	require.Len(t, byName["admission_failure"], 2)
	assert.Equal(t, string(models.ReasonKillSwitch), byName["admission_failure"][0].Tags["reason"])

	require.Len(t, byName["admission_output_mb"], 1)
	assert.Equal(t, 4.0, byName["admission_output_mb"][0].Value)
}

func TestSnapshotStableOrder(t *testing.T) {
	m := NewCounterMetrics()
	m.RecordRejection("b", models.ReasonKillSwitch)
	m.RecordRejection("a", models.ReasonKillSwitch)
	m.RecordAdmission("z")

	first := m.Snapshot()
	second := m.Snapshot()
	assert.Equal(t, first, second)
	assert.Equal(t, "admission_failure", first[0].Name)
	assert.Equal(t, "a", first[0].Tags["campaign_id"])
}

func TestCounterMetricsConcurrent(t *testing.T) {
	m := NewCounterMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordAdmission("campaign-a")
			}
		}()
	}
	wg.Wait()

	points := m.Snapshot()
	require.Len(t, points, 1)
	assert.Equal(t, 1600.0, points[0].Value)
}

func TestNewLogger(t *testing.T) {
	t.Run("json production logger", func(t *testing.T) {
		logger, err := NewLogger("info", "json")
		require.NoError(t, err)
		logger.Info("ok")
	})

	t.Run("console development logger", func(t *testing.T) {
		logger, err := NewLogger("debug", "console")
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(-1)) // debug level
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := NewLogger("shouting", "json")
		assert.Error(t, err)
	})
}
