package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/repositories"
	"github.com/easymo/generation-control-plane/services"
)

// FigureRepository implements the repositories.FigureRepository interface
type FigureRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFigureRepository creates a new figure repository
func NewFigureRepository(db *DB, logger *zap.Logger) repositories.FigureRepository {
	return &FigureRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a figure by ID
func (r *FigureRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Figure, error) {
	query := `
		SELECT id, tenant_id, name, rights_start, rights_end,
		       allowed_countries, allowed_regions, policy_notes, legal_notes,
		       brand_guide_id, created_at, updated_at
		FROM figures
		WHERE id = $1
	`

	var figure models.Figure
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&figure.ID,
		&figure.TenantID,
		&figure.Name,
		&figure.RightsStart,
		&figure.RightsEnd,
		pq.Array(&figure.AllowedCountries),
		pq.Array(&figure.AllowedRegions),
		&figure.PolicyNotes,
		&figure.LegalNotes,
		&figure.BrandGuideID,
		&figure.CreatedAt,
		&figure.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrFigureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get figure: %w", err)
	}

	return &figure, nil
}
