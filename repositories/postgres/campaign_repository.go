package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/repositories"
	"github.com/easymo/generation-control-plane/services"
)

// CampaignRepository implements the repositories.CampaignRepository interface
type CampaignRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *DB, logger *zap.Logger) repositories.CampaignRepository {
	return &CampaignRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a campaign by ID
func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	query := `
		SELECT id, tenant_id, name, daily_cost_cap, kill_switch, brand_guide_id, created_at, updated_at
		FROM campaigns
		WHERE id = $1
	`

	var campaign models.Campaign
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&campaign.ID,
		&campaign.TenantID,
		&campaign.Name,
		&campaign.DailyCostCap,
		&campaign.KillSwitch,
		&campaign.BrandGuideID,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return &campaign, nil
}
