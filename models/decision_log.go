package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DecisionOutcome classifies an audit trail entry.
type DecisionOutcome string

const (
	OutcomeAdmitted DecisionOutcome = "admitted"
	OutcomeRejected DecisionOutcome = "rejected"
)

// briefPreviewLen bounds how much of the caller's creative brief the audit
// trail retains. The full prompt is never persisted; the hash identifies it.
const briefPreviewLen = 120

// DecisionLog is one audit trail entry per admission decision. Sensitive
// content is stored truncated or hashed, never verbatim.
type DecisionLog struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	CampaignID     uuid.UUID        `json:"campaign_id" db:"campaign_id"`
	FigureID       uuid.UUID        `json:"figure_id" db:"figure_id"`
	BrandGuideID   *uuid.UUID       `json:"brand_guide_id,omitempty" db:"brand_guide_id"`
	RequesterID    *uuid.UUID       `json:"requester_id,omitempty" db:"requester_id"`
	Outcome        DecisionOutcome  `json:"outcome" db:"outcome"`
	Reason         *RejectionReason `json:"reason,omitempty" db:"reason"`
	ViolatingTerms []string         `json:"violating_terms,omitempty" db:"violating_terms"`
	PromptHash     string           `json:"prompt_hash,omitempty" db:"prompt_hash"`
	BriefPreview   string           `json:"brief_preview" db:"brief_preview"`
	EstimatedCost  decimal.Decimal  `json:"estimated_cost" db:"estimated_cost"`
	Country        string           `json:"country,omitempty" db:"country"`
	Region         string           `json:"region,omitempty" db:"region"`
	JobID          *string          `json:"job_id,omitempty" db:"job_id"`
	RequestID      string           `json:"request_id,omitempty" db:"request_id"`
	LatencyMs      int              `json:"latency_ms" db:"latency_ms"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the DecisionLog model
func (DecisionLog) TableName() string {
	return "decision_logs"
}

// NewDecisionLog creates a log entry for a request, truncating the creative
// brief to a safe preview.
func NewDecisionLog(req *GenerationRequest, outcome DecisionOutcome) *DecisionLog {
	return &DecisionLog{
		ID:            uuid.New(),
		CampaignID:    req.CampaignID,
		FigureID:      req.FigureID,
		RequesterID:   req.RequesterID,
		Outcome:       outcome,
		BriefPreview:  TruncateBrief(req.Prompt),
		EstimatedCost: req.EstimatedCost,
		Country:       req.NormalizedCountry(),
		Region:        req.NormalizedRegion(),
		RequestID:     req.RequestID,
		CreatedAt:     time.Now().UTC(),
	}
}

// WithReason sets the rejection reason.
func (d *DecisionLog) WithReason(reason RejectionReason) *DecisionLog {
	d.Reason = &reason
	return d
}

// WithViolatingTerms records the forbidden terms matched in the prompt.
func (d *DecisionLog) WithViolatingTerms(terms []string) *DecisionLog {
	d.ViolatingTerms = terms
	return d
}

// WithJob records the admitted job id and prompt fingerprint.
func (d *DecisionLog) WithJob(jobID, promptHash string) *DecisionLog {
	d.JobID = &jobID
	d.PromptHash = promptHash
	return d
}

// WithBrandGuide records which guide was resolved for the request.
func (d *DecisionLog) WithBrandGuide(id uuid.UUID) *DecisionLog {
	d.BrandGuideID = &id
	return d
}

// WithLatency records the decision latency in milliseconds.
func (d *DecisionLog) WithLatency(ms int) *DecisionLog {
	d.LatencyMs = ms
	return d
}

// TruncateBrief shortens free text to the audit preview length without
// splitting a multi-byte rune.
func TruncateBrief(s string) string {
	if len(s) <= briefPreviewLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= briefPreviewLen {
		return s
	}
	return string(runes[:briefPreviewLen]) + "…"
}
