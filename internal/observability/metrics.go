package observability

import (
	"sort"
	"sync"

	"github.com/easymo/generation-control-plane/models"
)

// DecisionMetrics collects admission decision counters.
type DecisionMetrics interface {
	// RecordAdmission counts one successful admission for a campaign.
	RecordAdmission(campaignID string)

	// RecordRejection counts one rejection tagged with its reason.
	RecordRejection(campaignID string, reason models.RejectionReason)

	// RecordOutputSize accumulates the expected output megabytes of
	// admitted jobs.
	RecordOutputSize(campaignID string, megabytes float64)
}

// MetricPoint is one counter at read time.
type MetricPoint struct {
	Name  string            `json:"name"`
	Tags  map[string]string `json:"tags,omitempty"`
	Value float64           `json:"value"`
}

// CounterMetrics is an in-process DecisionMetrics backed by a mutex-guarded
// counter map. The ops dashboard scrapes it through the decisions metrics
// endpoint.
type CounterMetrics struct {
	mu       sync.Mutex
	counters map[metricKey]float64
}

type metricKey struct {
	name       string
	campaignID string
	reason     models.RejectionReason
}

// NewCounterMetrics creates a new CounterMetrics instance
func NewCounterMetrics() *CounterMetrics {
	return &CounterMetrics{
		counters: make(map[metricKey]float64),
	}
}

// RecordAdmission counts one successful admission
func (m *CounterMetrics) RecordAdmission(campaignID string) {
	m.add(metricKey{name: "admission_success", campaignID: campaignID}, 1)
}

// RecordRejection counts one rejection tagged with its reason
func (m *CounterMetrics) RecordRejection(campaignID string, reason models.RejectionReason) {
	m.add(metricKey{name: "admission_failure", campaignID: campaignID, reason: reason}, 1)
}

// RecordOutputSize accumulates expected output megabytes of admitted jobs
func (m *CounterMetrics) RecordOutputSize(campaignID string, megabytes float64) {
	m.add(metricKey{name: "admission_output_mb", campaignID: campaignID}, megabytes)
}

func (m *CounterMetrics) add(key metricKey, delta float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key] += delta
}

// Snapshot returns all counters in a stable order.
func (m *CounterMetrics) Snapshot() []MetricPoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	points := make([]MetricPoint, 0, len(m.counters))
	for key, value := range m.counters {
		tags := map[string]string{}
		if key.campaignID != "" {
			tags["campaign_id"] = key.campaignID
		}
		if key.reason != "" {
			tags["reason"] = string(key.reason)
		}
		points = append(points, MetricPoint{Name: key.name, Tags: tags, Value: value})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Name != points[j].Name {
			return points[i].Name < points[j].Name
		}
		if points[i].Tags["campaign_id"] != points[j].Tags["campaign_id"] {
			return points[i].Tags["campaign_id"] < points[j].Tags["campaign_id"]
		}
		return points[i].Tags["reason"] < points[j].Tags["reason"]
	})
	return points
}

// NopMetrics discards all recordings. Useful in tests.
type NopMetrics struct{}

// RecordAdmission implements DecisionMetrics
func (NopMetrics) RecordAdmission(string) {}

// RecordRejection implements DecisionMetrics
func (NopMetrics) RecordRejection(string, models.RejectionReason) {}

// RecordOutputSize implements DecisionMetrics
func (NopMetrics) RecordOutputSize(string, float64) {}
