package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/repositories"
	"github.com/easymo/generation-control-plane/services"
)

// SQLSTATE codes lib/pq reports for transactions that lost a concurrency
// race and are safe to retry.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// GenerationLimitRepository implements the repositories.GenerationLimitRepository
// interface. The reservation is a single conditional upsert, so the
// check-against-cap and the increment are one indivisible statement: two
// concurrent reservations against the same headroom can never both commit.
type GenerationLimitRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewGenerationLimitRepository creates a new generation limit repository
func NewGenerationLimitRepository(db *DB, logger *zap.Logger) repositories.GenerationLimitRepository {
	return &GenerationLimitRepository{
		db:     db,
		logger: logger,
	}
}

// reserveQuery inserts the row on first use of the day and otherwise
// increments it, but only when the post-increment spend stays within the cap
// (a NULL cap is unconditional). A reservation that does not fit matches no
// row and returns sql.ErrNoRows. The insert arm needs no cap guard: callers
// reject amount > cap before reaching storage, and any smaller first
// reservation fits by definition.
const reserveQuery = `
	INSERT INTO generation_limits (campaign_id, day, spend, jobs_count, created_at, updated_at)
	VALUES ($1, $2, $3, 1, NOW(), NOW())
	ON CONFLICT (campaign_id, day) DO UPDATE
	SET spend = generation_limits.spend + EXCLUDED.spend,
	    jobs_count = generation_limits.jobs_count + 1,
	    updated_at = NOW()
	WHERE $4::numeric IS NULL
	   OR generation_limits.spend + EXCLUDED.spend <= $4::numeric
	RETURNING spend, jobs_count, created_at, updated_at
`

// Reserve atomically adds amount to the (campaign, day) ledger row.
func (r *GenerationLimitRepository) Reserve(ctx context.Context, campaignID uuid.UUID, day string, amount decimal.Decimal, cap *decimal.Decimal) (bool, *models.GenerationLimit, error) {
	var capArg interface{}
	if cap != nil {
		capArg = cap.String()
	}

	row := &models.GenerationLimit{
		CampaignID: campaignID,
		Day:        day,
	}

	err := r.db.QueryRowContext(ctx, reserveQuery, campaignID, day, amount, capArg).Scan(
		&row.Spend,
		&row.JobsCount,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// The conditional update matched nothing: the reservation does not
		// fit under the cap and the row is unchanged.
		return false, nil, nil
	}
	if err != nil {
		if isRetryable(err) {
			r.logger.Debug("ledger reservation hit storage contention",
				zap.String("campaign_id", campaignID.String()),
				zap.String("day", day))
			return false, nil, services.ErrLedgerContention
		}
		return false, nil, fmt.Errorf("failed to reserve spend: %w", err)
	}

	return true, row, nil
}

// Get retrieves the ledger row for a (campaign, day) key
func (r *GenerationLimitRepository) Get(ctx context.Context, campaignID uuid.UUID, day string) (*models.GenerationLimit, error) {
	query := `
		SELECT campaign_id, day, spend, jobs_count, created_at, updated_at
		FROM generation_limits
		WHERE campaign_id = $1 AND day = $2
	`

	var (
		row     models.GenerationLimit
		dayDate time.Time
	)
	err := r.db.QueryRowContext(ctx, query, campaignID, day).Scan(
		&row.CampaignID,
		&dayDate,
		&row.Spend,
		&row.JobsCount,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.ErrLedgerRowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generation limit: %w", err)
	}
	row.Day = dayDate.UTC().Format(models.DayKeyFormat)

	return &row, nil
}

// isRetryable reports whether the error is a transient concurrency failure.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqSerializationFailure || string(pqErr.Code) == pqDeadlockDetected
	}
	return false
}
