package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Figure represents a branded persona or likeness with legal usage rights.
// A figure may only be used inside its rights window and within its approved
// territories. An empty allow-list means the dimension is unrestricted.
type Figure struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	TenantID         uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Name             string     `json:"name" db:"name"`
	RightsStart      *time.Time `json:"rights_start,omitempty" db:"rights_start"`
	RightsEnd        *time.Time `json:"rights_end,omitempty" db:"rights_end"`
	AllowedCountries []string   `json:"allowed_countries" db:"allowed_countries"`
	AllowedRegions   []string   `json:"allowed_regions" db:"allowed_regions"`
	PolicyNotes      string     `json:"policy_notes" db:"policy_notes"`
	LegalNotes       string     `json:"legal_notes" db:"legal_notes"`
	BrandGuideID     *uuid.UUID `json:"brand_guide_id,omitempty" db:"brand_guide_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Figure model
func (Figure) TableName() string {
	return "figures"
}

// RightsActiveAt reports whether the rights window covers the given instant.
// An absent bound is treated as satisfied.
func (f *Figure) RightsActiveAt(now time.Time) bool {
	if f.RightsStart != nil && now.Before(*f.RightsStart) {
		return false
	}
	if f.RightsEnd != nil && now.After(*f.RightsEnd) {
		return false
	}
	return true
}

// CountryAllowed reports whether the normalized country token is permitted.
// An empty allow-list permits every country.
func (f *Figure) CountryAllowed(country string) bool {
	return tokenAllowed(f.AllowedCountries, country)
}

// RegionAllowed reports whether the normalized region token is permitted.
func (f *Figure) RegionAllowed(region string) bool {
	return tokenAllowed(f.AllowedRegions, region)
}

func tokenAllowed(allowed []string, token string) bool {
	if len(allowed) == 0 {
		return true
	}
	if token == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(a, token) {
			return true
		}
	}
	return false
}
