package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerationRequest is a single request to synthesize branded content. It is
// ephemeral: the engine evaluates it and discards it, persisting only the
// ledger increment and the decision audit record.
type GenerationRequest struct {
	CampaignID       uuid.UUID         `json:"campaign_id"`
	FigureID         uuid.UUID         `json:"figure_id"`
	Prompt           string            `json:"prompt"`
	Country          string            `json:"country,omitempty"`
	Region           string            `json:"region,omitempty"`
	Locale           string            `json:"locale,omitempty"`
	EstimatedCost    decimal.Decimal   `json:"estimated_cost"`
	ExpectedOutputMB *float64          `json:"expected_output_mb,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	RequesterID      *uuid.UUID        `json:"requester_id,omitempty"`
	RequestID        string            `json:"request_id,omitempty"`
}

// NormalizedCountry returns the lowercased country token, empty if unset.
func (r *GenerationRequest) NormalizedCountry() string {
	return strings.ToLower(strings.TrimSpace(r.Country))
}

// NormalizedRegion returns the lowercased region token, empty if unset.
func (r *GenerationRequest) NormalizedRegion() string {
	return strings.ToLower(strings.TrimSpace(r.Region))
}
