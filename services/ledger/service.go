package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/repositories"
	"github.com/easymo/generation-control-plane/services"
)

// ReserveRequest asks for headroom against a campaign's daily cap.
type ReserveRequest struct {
	CampaignID uuid.UUID
	Day        string // UTC calendar day key, models.DayKey
	Amount     decimal.Decimal
	Cap        *decimal.Decimal // nil = unlimited
}

// ReserveResult reports whether this caller's reservation committed and the
// ledger state it observed. When Accepted is false the row is unchanged.
type ReserveResult struct {
	Accepted     bool
	NewSpend     decimal.Decimal
	NewJobsCount int
}

// Config holds tuning for the ledger's contention retry loop.
type Config struct {
	MaxAttempts  int           // attempts per reservation before failing closed
	RetryBackoff time.Duration // pause between attempts
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  4,
		RetryBackoff: 25 * time.Millisecond,
	}
}

// Service is the concurrency-critical spend ledger. It delegates the
// conditional increment to the repository, which must execute it as one
// indivisible operation, and retries only storage-level contention. A
// reservation rejected for budget reasons is final for the day.
type Service struct {
	repo   repositories.GenerationLimitRepository
	logger *zap.Logger
	config Config
}

// NewService creates a new ledger Service instance
func NewService(repo repositories.GenerationLimitRepository, logger *zap.Logger, config Config) *Service {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = DefaultConfig().RetryBackoff
	}
	return &Service{
		repo:   repo,
		logger: logger,
		config: config,
	}
}

// Reserve attempts to reserve req.Amount against the (campaign, day) row.
// Under contention it retries up to the configured attempt budget and then
// fails closed with services.ErrLedgerContention rather than admitting
// speculatively.
func (s *Service) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error) {
	if req.Amount.IsNegative() {
		return nil, services.ErrNegativeCost
	}

	// Amount can never fit under the cap, in any ledger state. Deciding this
	// without touching storage is race-free because it does not depend on
	// current spend.
	if req.Cap != nil && req.Amount.GreaterThan(*req.Cap) {
		current, err := s.currentState(ctx, req)
		if err != nil {
			return nil, err
		}
		return &ReserveResult{
			Accepted:     false,
			NewSpend:     current.Spend,
			NewJobsCount: current.JobsCount,
		}, nil
	}

	var lastErr error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		accepted, row, err := s.repo.Reserve(ctx, req.CampaignID, req.Day, req.Amount, req.Cap)
		if err == nil {
			if !accepted {
				// Budget rejection, not contention: report the untouched state.
				current, stateErr := s.currentState(ctx, req)
				if stateErr != nil {
					return nil, stateErr
				}
				return &ReserveResult{
					Accepted:     false,
					NewSpend:     current.Spend,
					NewJobsCount: current.JobsCount,
				}, nil
			}
			return &ReserveResult{
				Accepted:     true,
				NewSpend:     row.Spend,
				NewJobsCount: row.JobsCount,
			}, nil
		}

		if !errors.Is(err, services.ErrLedgerContention) {
			return nil, fmt.Errorf("failed to reserve spend: %w", err)
		}
		lastErr = err

		s.logger.Warn("ledger reservation contention, retrying",
			zap.String("campaign_id", req.CampaignID.String()),
			zap.String("day", req.Day),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", s.config.MaxAttempts))

		if attempt < s.config.MaxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.config.RetryBackoff):
			}
		}
	}

	s.logger.Error("ledger reservation retry budget exhausted",
		zap.String("campaign_id", req.CampaignID.String()),
		zap.String("day", req.Day),
		zap.Int("attempts", s.config.MaxAttempts))
	return nil, lastErr
}

// GetDay returns the ledger row for a (campaign, day) key. When no spend has
// been recorded yet it returns a zero-valued row rather than an error, so
// status surfaces can always render headroom.
func (s *Service) GetDay(ctx context.Context, campaignID uuid.UUID, day string) (*models.GenerationLimit, error) {
	row, err := s.repo.Get(ctx, campaignID, day)
	if err != nil {
		if services.IsNotFoundError(err) {
			return &models.GenerationLimit{
				CampaignID: campaignID,
				Day:        day,
				Spend:      decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("failed to load generation limit: %w", err)
	}
	return row, nil
}

// currentState reads the row for rejection reporting; absence means zero.
func (s *Service) currentState(ctx context.Context, req ReserveRequest) (*models.GenerationLimit, error) {
	return s.GetDay(ctx, req.CampaignID, req.Day)
}
