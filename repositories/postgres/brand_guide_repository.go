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

// BrandGuideRepository implements the repositories.BrandGuideRepository interface
type BrandGuideRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewBrandGuideRepository creates a new brand guide repository
func NewBrandGuideRepository(db *DB, logger *zap.Logger) repositories.BrandGuideRepository {
	return &BrandGuideRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a brand guide by ID
func (r *BrandGuideRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BrandGuide, error) {
	query := `
		SELECT id, voice_tone, brand_pillars, safety_guidelines,
		       legal_disclaimer, forbidden_terms, created_at, updated_at
		FROM brand_guides
		WHERE id = $1
	`

	var guide models.BrandGuide
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&guide.ID,
		&guide.VoiceTone,
		pq.Array(&guide.BrandPillars),
		&guide.SafetyGuidelines,
		&guide.LegalDisclaimer,
		pq.Array(&guide.ForbiddenTerms),
		&guide.CreatedAt,
		&guide.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrBrandGuideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand guide: %w", err)
	}

	return &guide, nil
}
