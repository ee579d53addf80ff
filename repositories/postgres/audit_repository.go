package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/repositories"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new decision log entry
func (r *AuditRepository) Insert(ctx context.Context, log *models.DecisionLog) error {
	query := `
		INSERT INTO decision_logs (
			id, campaign_id, figure_id, brand_guide_id, requester_id,
			outcome, reason, violating_terms, prompt_hash, brief_preview,
			estimated_cost, country, region, job_id, request_id, latency_ms, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.CampaignID,
		log.FigureID,
		log.BrandGuideID,
		log.RequesterID,
		log.Outcome,
		log.Reason,
		pq.Array(log.ViolatingTerms),
		log.PromptHash,
		log.BriefPreview,
		log.EstimatedCost,
		log.Country,
		log.Region,
		log.JobID,
		log.RequestID,
		log.LatencyMs,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision log: %w", err)
	}

	r.logger.Debug("decision log inserted",
		zap.String("id", log.ID.String()),
		zap.String("outcome", string(log.Outcome)))
	return nil
}

// GetByCampaignID retrieves decision logs for a campaign with pagination,
// most recent first.
func (r *AuditRepository) GetByCampaignID(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]*models.DecisionLog, error) {
	query := `
		SELECT id, campaign_id, figure_id, brand_guide_id, requester_id,
		       outcome, reason, violating_terms, prompt_hash, brief_preview,
		       estimated_cost, country, region, job_id, request_id, latency_ms, created_at
		FROM decision_logs
		WHERE campaign_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, campaignID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.DecisionLog
	for rows.Next() {
		log := &models.DecisionLog{}
		err := rows.Scan(
			&log.ID,
			&log.CampaignID,
			&log.FigureID,
			&log.BrandGuideID,
			&log.RequesterID,
			&log.Outcome,
			&log.Reason,
			pq.Array(&log.ViolatingTerms),
			&log.PromptHash,
			&log.BriefPreview,
			&log.EstimatedCost,
			&log.Country,
			&log.Region,
			&log.JobID,
			&log.RequestID,
			&log.LatencyMs,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decision log rows: %w", err)
	}

	return logs, nil
}
