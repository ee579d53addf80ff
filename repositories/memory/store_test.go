package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easymo/generation-control-plane/models"
	"github.com/easymo/generation-control-plane/services"
)

func TestReadRepositories(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := NewRepositories(store)

	t.Run("campaign round trip", func(t *testing.T) {
		campaign := &models.Campaign{ID: uuid.New(), TenantID: uuid.New(), Name: "Launch"}
		store.PutCampaign(campaign)

		got, err := repos.Campaigns.GetByID(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, campaign.Name, got.Name)
	})

	t.Run("missing campaign maps to domain error", func(t *testing.T) {
		_, err := repos.Campaigns.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, services.ErrCampaignNotFound)
		assert.True(t, services.IsNotFoundError(err))
	})

	t.Run("missing figure and guide map to domain errors", func(t *testing.T) {
		_, err := repos.Figures.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, services.ErrFigureNotFound)

		_, err = repos.BrandGuides.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, services.ErrBrandGuideNotFound)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		figure := &models.Figure{ID: uuid.New(), TenantID: uuid.New(), Name: "Ambassador"}
		store.PutFigure(figure)

		got, err := repos.Figures.GetByID(ctx, figure.ID)
		require.NoError(t, err)
		got.Name = "mutated"

		again, err := repos.Figures.GetByID(ctx, figure.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ambassador", again.Name)
	})
}

func TestGenerationLimitRepository(t *testing.T) {
	ctx := context.Background()
	campaignID := uuid.New()
	day := "2026-06-15"

	t.Run("creates row on first reservation", func(t *testing.T) {
		repos := NewRepositories(NewStore())
		cap := decimal.NewFromInt(10)

		accepted, row, err := repos.GenerationLimits.Reserve(ctx, campaignID, day, decimal.NewFromInt(4), &cap)
		require.NoError(t, err)
		assert.True(t, accepted)
		assert.True(t, row.Spend.Equal(decimal.NewFromInt(4)))
		assert.Equal(t, 1, row.JobsCount)
	})

	t.Run("rejects over-cap increment and preserves state", func(t *testing.T) {
		repos := NewRepositories(NewStore())
		cap := decimal.NewFromInt(10)

		_, _, err := repos.GenerationLimits.Reserve(ctx, campaignID, day, decimal.NewFromInt(8), &cap)
		require.NoError(t, err)

		accepted, row, err := repos.GenerationLimits.Reserve(ctx, campaignID, day, decimal.NewFromInt(3), &cap)
		require.NoError(t, err)
		assert.False(t, accepted)
		assert.Nil(t, row)

		current, err := repos.GenerationLimits.Get(ctx, campaignID, day)
		require.NoError(t, err)
		assert.True(t, current.Spend.Equal(decimal.NewFromInt(8)))
		assert.Equal(t, 1, current.JobsCount)
	})

	t.Run("days are isolated", func(t *testing.T) {
		repos := NewRepositories(NewStore())
		cap := decimal.NewFromInt(10)

		_, _, err := repos.GenerationLimits.Reserve(ctx, campaignID, "2026-06-15", decimal.NewFromInt(10), &cap)
		require.NoError(t, err)

		accepted, _, err := repos.GenerationLimits.Reserve(ctx, campaignID, "2026-06-16", decimal.NewFromInt(10), &cap)
		require.NoError(t, err)
		assert.True(t, accepted)
	})

	t.Run("get before any reservation returns not found", func(t *testing.T) {
		repos := NewRepositories(NewStore())
		_, err := repos.GenerationLimits.Get(ctx, campaignID, day)
		assert.ErrorIs(t, err, services.ErrLedgerRowNotFound)
	})

	t.Run("concurrent reservations never breach the cap", func(t *testing.T) {
		repos := NewRepositories(NewStore())
		cap := decimal.NewFromInt(10)

		const workers = 50
		var wins int64
		var mu sync.Mutex
		var wg sync.WaitGroup

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				accepted, _, err := repos.GenerationLimits.Reserve(ctx, campaignID, day, decimal.NewFromInt(1), &cap)
				assert.NoError(t, err)
				if accepted {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 10, wins)

		row, err := repos.GenerationLimits.Get(ctx, campaignID, day)
		require.NoError(t, err)
		assert.True(t, row.Spend.Equal(cap))
		assert.Equal(t, 10, row.JobsCount)
	})
}

func TestAuditRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(NewStore())
	campaignID := uuid.New()

	for i := 0; i < 5; i++ {
		log := &models.DecisionLog{
			ID:         uuid.New(),
			CampaignID: campaignID,
			FigureID:   uuid.New(),
			Outcome:    models.OutcomeAdmitted,
			CreatedAt:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repos.AuditLogs.Insert(ctx, log))
	}
	// Noise from another campaign.
	require.NoError(t, repos.AuditLogs.Insert(ctx, &models.DecisionLog{
		ID:         uuid.New(),
		CampaignID: uuid.New(),
		Outcome:    models.OutcomeRejected,
		CreatedAt:  time.Now().UTC(),
	}))

	t.Run("filters by campaign and orders newest first", func(t *testing.T) {
		logs, err := repos.AuditLogs.GetByCampaignID(ctx, campaignID, 10, 0)
		require.NoError(t, err)
		require.Len(t, logs, 5)
		for i := 1; i < len(logs); i++ {
			assert.False(t, logs[i].CreatedAt.After(logs[i-1].CreatedAt))
		}
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := repos.AuditLogs.GetByCampaignID(ctx, campaignID, 2, 2)
		require.NoError(t, err)
		assert.Len(t, page, 2)

		tail, err := repos.AuditLogs.GetByCampaignID(ctx, campaignID, 10, 4)
		require.NoError(t, err)
		assert.Len(t, tail, 1)

		empty, err := repos.AuditLogs.GetByCampaignID(ctx, campaignID, 10, 99)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
