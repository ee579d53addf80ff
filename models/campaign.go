package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Campaign represents a tenant-owned marketing campaign. Campaigns own the
// daily spend cap and the kill switch consulted on every admission decision.
// The engine treats campaigns as read-only; they are authored elsewhere.
type Campaign struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	TenantID     uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	Name         string           `json:"name" db:"name"`
	DailyCostCap *decimal.Decimal `json:"daily_cost_cap,omitempty" db:"daily_cost_cap"` // nil = unlimited
	KillSwitch   bool             `json:"kill_switch" db:"kill_switch"`
	BrandGuideID *uuid.UUID       `json:"brand_guide_id,omitempty" db:"brand_guide_id"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}

// HasCap reports whether the campaign enforces a daily spend cap.
func (c *Campaign) HasCap() bool {
	return c.DailyCostCap != nil
}
