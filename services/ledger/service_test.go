package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/repositories/memory"
	"github.com/easymo/generation-control-plane/services"
)

// flakyRepo fails the first n Reserve calls with contention before
// delegating to the in-memory ledger.
type flakyRepo struct {
	inner     *memory.GenerationLimitRepository
	failures  int
	attempts  int
	permanent error
}

func (r *flakyRepo) Reserve(ctx context.Context, campaignID uuid.UUID, day string, amount decimal.Decimal, cap *decimal.Decimal) (bool, *models.GenerationLimit, error) {
	r.attempts++
	if r.permanent != nil {
		return false, nil, r.permanent
	}
	if r.attempts <= r.failures {
		return false, nil, services.ErrLedgerContention
	}
	return r.inner.Reserve(ctx, campaignID, day, amount, cap)
}

func (r *flakyRepo) Get(ctx context.Context, campaignID uuid.UUID, day string) (*models.GenerationLimit, error) {
	return r.inner.Get(ctx, campaignID, day)
}

func newFlakyRepo(failures int) *flakyRepo {
	repos := memory.NewRepositories(memory.NewStore())
	return &flakyRepo{
		inner:    repos.GenerationLimits.(*memory.GenerationLimitRepository),
		failures: failures,
	}
}

func testConfig() Config {
	return Config{MaxAttempts: 3, RetryBackoff: time.Millisecond}
}

func TestReserve(t *testing.T) {
	ctx := context.Background()
	campaignID := uuid.New()
	day := "2026-06-15"

	t.Run("accepts within cap", func(t *testing.T) {
		repo := newFlakyRepo(0)
		svc := NewService(repo, zap.NewNop(), testConfig())
		cap := decimal.NewFromInt(10)

		result, err := svc.Reserve(ctx, ReserveRequest{
			CampaignID: campaignID,
			Day:        day,
			Amount:     decimal.RequireFromString("2.5"),
			Cap:        &cap,
		})
		require.NoError(t, err)
		assert.True(t, result.Accepted)
		assert.True(t, result.NewSpend.Equal(decimal.RequireFromString("2.5")))
		assert.Equal(t, 1, result.NewJobsCount)
	})

	t.Run("accepts reservation landing exactly on the cap", func(t *testing.T) {
		repo := newFlakyRepo(0)
		svc := NewService(repo, zap.NewNop(), testConfig())
		cap := decimal.NewFromInt(10)

		_, err := svc.Reserve(ctx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.NewFromInt(6), Cap: &cap})
		require.NoError(t, err)

		result, err := svc.Reserve(ctx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.NewFromInt(4), Cap: &cap})
		require.NoError(t, err)
		assert.True(t, result.Accepted)
		assert.True(t, result.NewSpend.Equal(decimal.NewFromInt(10)))
	})

	t.Run("rejects when cap would be exceeded and leaves ledger unchanged", func(t *testing.T) {
		repo := newFlakyRepo(0)
		svc := NewService(repo, zap.NewNop(), testConfig())
		cap := decimal.NewFromInt(10)

		_, err := svc.Reserve(ctx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.NewFromInt(9), Cap: &cap})
		require.NoError(t, err)

		result, err := svc.Reserve(ctx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.NewFromInt(2), Cap: &cap})
		require.NoError(t, err)
		assert.False(t, result.Accepted)
		assert.True(t, result.NewSpend.Equal(decimal.NewFromInt(9)))
		assert.Equal(t, 1, result.NewJobsCount)
	})

	t.Run("amount above cap rejected without touching storage state", func(t *testing.T) {
		repo := newFlakyRepo(0)
		svc := NewService(repo, zap.NewNop(), testConfig())
		cap := decimal.NewFromInt(5)

		result, err := svc.Reserve(ctx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.NewFromInt(6), Cap: &cap})
		require.NoError(t, err)
		assert.False(t, result.Accepted)
		assert.True(t, result.NewSpend.IsZero())

		row, err := svc.GetDay(ctx, campaignID, day)
		require.NoError(t, err)
		assert.True(t, row.Spend.IsZero())
		assert.Equal(t, 0, row.JobsCount)
	})

	t.Run("nil cap is unlimited", func(t *testing.T) {
		repo := newFlakyRepo(0)
		svc := NewService(repo, zap.NewNop(), testConfig())

		result, err := svc.Reserve(ctx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.NewFromInt(1000000)})
		require.NoError(t, err)
		assert.True(t, result.Accepted)
	})

	t.Run("negative amount refused", func(t *testing.T) {
		repo := newFlakyRepo(0)
		svc := NewService(repo, zap.NewNop(), testConfig())

		_, err := svc.Reserve(ctx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.NewFromInt(-1)})
		assert.ErrorIs(t, err, services.ErrNegativeCost)
	})

	t.Run("retries contention and succeeds", func(t *testing.T) {
		repo := newFlakyRepo(2)
		svc := NewService(repo, zap.NewNop(), testConfig())

		result, err := svc.Reserve(ctx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.NewFromInt(1)})
		require.NoError(t, err)
		assert.True(t, result.Accepted)
		assert.Equal(t, 3, repo.attempts)
	})

	t.Run("fails closed after retry budget exhausted", func(t *testing.T) {
		repo := newFlakyRepo(10)
		svc := NewService(repo, zap.NewNop(), testConfig())

		_, err := svc.Reserve(ctx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, services.ErrLedgerContention)
		assert.Equal(t, 3, repo.attempts)
	})

	t.Run("non-contention storage error not retried", func(t *testing.T) {
		repo := newFlakyRepo(0)
		repo.permanent = assert.AnError
		svc := NewService(repo, zap.NewNop(), testConfig())

		_, err := svc.Reserve(ctx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.NewFromInt(1)})
		assert.Error(t, err)
		assert.Equal(t, 1, repo.attempts)
	})

	t.Run("context cancellation stops retries", func(t *testing.T) {
		repo := newFlakyRepo(10)
		svc := NewService(repo, zap.NewNop(), Config{MaxAttempts: 5, RetryBackoff: 50 * time.Millisecond})

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.Reserve(cancelCtx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGetDay(t *testing.T) {
	ctx := context.Background()
	campaignID := uuid.New()
	day := "2026-06-15"

	t.Run("zero row before first reservation", func(t *testing.T) {
		repo := newFlakyRepo(0)
		svc := NewService(repo, zap.NewNop(), testConfig())

		row, err := svc.GetDay(ctx, campaignID, day)
		require.NoError(t, err)
		assert.Equal(t, campaignID, row.CampaignID)
		assert.Equal(t, day, row.Day)
		assert.True(t, row.Spend.IsZero())
		assert.Equal(t, 0, row.JobsCount)
	})

	t.Run("reflects accumulated spend", func(t *testing.T) {
		repo := newFlakyRepo(0)
		svc := NewService(repo, zap.NewNop(), testConfig())

		for i := 0; i < 3; i++ {
			_, err := svc.Reserve(ctx, ReserveRequest{CampaignID: campaignID, Day: day, Amount: decimal.RequireFromString("0.1")})
			require.NoError(t, err)
		}

		row, err := svc.GetDay(ctx, campaignID, day)
		require.NoError(t, err)
		assert.True(t, row.Spend.Equal(decimal.RequireFromString("0.3")))
		assert.Equal(t, 3, row.JobsCount)
	})
}
