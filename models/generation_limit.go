package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DayKeyFormat is the layout of ledger day keys. Keys are always UTC.
const DayKeyFormat = "2006-01-02"

// DayKey returns the UTC calendar-day ledger key for the given instant.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayKeyFormat)
}

// GenerationLimit is the per-(campaign, UTC day) spend ledger row: the only
// entity this engine mutates. Spend uses exact decimal arithmetic; the row is
// created on first reservation of a day and incremented thereafter.
type GenerationLimit struct {
	CampaignID uuid.UUID       `json:"campaign_id" db:"campaign_id"`
	Day        string          `json:"day" db:"day"` // UTC calendar day, YYYY-MM-DD
	Spend      decimal.Decimal `json:"spend" db:"spend"`
	JobsCount  int             `json:"jobs_count" db:"jobs_count"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the GenerationLimit model
func (GenerationLimit) TableName() string {
	return "generation_limits"
}

// Headroom returns cap - spend, floored at zero. Only meaningful when the
// owning campaign has a cap.
func (l *GenerationLimit) Headroom(cap decimal.Decimal) decimal.Decimal {
	remaining := cap.Sub(l.Spend)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
