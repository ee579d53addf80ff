package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/easymo/generation-control-plane/models"
)

// CampaignRepository provides read access to campaign records. Campaigns are
// authored by operator tooling outside this engine; the engine never writes them.
type CampaignRepository interface {
	// GetByID retrieves a campaign by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
}

// FigureRepository provides read access to figure records.
type FigureRepository interface {
	// GetByID retrieves a figure by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Figure, error)
}

// BrandGuideRepository provides read access to brand guide records.
type BrandGuideRepository interface {
	// GetByID retrieves a brand guide by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.BrandGuide, error)
}

// GenerationLimitRepository owns the per-(campaign, UTC day) spend ledger.
type GenerationLimitRepository interface {
	// Reserve atomically increments the ledger row by amount and the jobs
	// count by one, creating the row on first use of the day. When cap is
	// non-nil the increment only commits if the post-increment spend stays
	// within the cap; a reservation that does not fit returns accepted=false
	// and leaves the row unchanged. The conditional increment must be
	// indivisible: two concurrent reservations may never both commit against
	// the same headroom.
	Reserve(ctx context.Context, campaignID uuid.UUID, day string, amount decimal.Decimal, cap *decimal.Decimal) (accepted bool, row *models.GenerationLimit, err error)

	// Get retrieves the ledger row for a (campaign, day) key. Returns
	// services.ErrLedgerRowNotFound when no spend has been recorded yet.
	Get(ctx context.Context, campaignID uuid.UUID, day string) (*models.GenerationLimit, error)
}

// AuditRepository persists decision audit trail entries.
type AuditRepository interface {
	// Insert inserts a new decision log entry
	Insert(ctx context.Context, log *models.DecisionLog) error

	// GetByCampaignID retrieves decision logs for a campaign with
	// pagination, newest first.
	GetByCampaignID(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*models.DecisionLog, error)
}

// Repositories aggregates all repository instances for dependency wiring.
type Repositories struct {
	Campaigns        CampaignRepository
	Figures          FigureRepository
	BrandGuides      BrandGuideRepository
	GenerationLimits GenerationLimitRepository
	AuditLogs        AuditRepository
}
