package models

import (
	"time"

	"github.com/google/uuid"
)

// BrandGuide bundles the tone, safety and legal policy applied to generated
// content. A figure-level guide overrides the campaign default.
type BrandGuide struct {
	ID               uuid.UUID `json:"id" db:"id"`
	VoiceTone        string    `json:"voice_tone" db:"voice_tone"`
	BrandPillars     []string  `json:"brand_pillars" db:"brand_pillars"`
	SafetyGuidelines string    `json:"safety_guidelines" db:"safety_guidelines"`
	LegalDisclaimer  string    `json:"legal_disclaimer" db:"legal_disclaimer"`
	ForbiddenTerms   []string  `json:"forbidden_terms" db:"forbidden_terms"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the BrandGuide model
func (BrandGuide) TableName() string {
	return "brand_guides"
}

// ResolveBrandGuide returns the effective guide for a figure within a
// campaign: the figure's own guide when present, else the campaign default.
// Either input may be nil.
func ResolveBrandGuide(figureGuide, campaignGuide *BrandGuide) *BrandGuide {
	if figureGuide != nil {
		return figureGuide
	}
	return campaignGuide
}
