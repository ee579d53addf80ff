package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/easymo/generation-control-plane/services"
)

func newMockRepo(t *testing.T) (*GenerationLimitRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	wrapped := &DB{DB: db, logger: zap.NewNop()}
	repo := NewGenerationLimitRepository(wrapped, zap.NewNop()).(*GenerationLimitRepository)
	return repo, mock
}

func TestGenerationLimitRepository_Reserve(t *testing.T) {
	ctx := context.Background()
	campaignID := uuid.New()
	day := "2026-06-15"
	now := time.Now().UTC()

	t.Run("accepted reservation returns updated row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		cap := decimal.NewFromInt(10)

		mock.ExpectQuery("INSERT INTO generation_limits").
			WithArgs(campaignID, day, decimal.RequireFromString("2.5"), cap.String()).
			WillReturnRows(sqlmock.NewRows([]string{"spend", "jobs_count", "created_at", "updated_at"}).
				AddRow("7.5", 3, now, now))

		accepted, row, err := repo.Reserve(ctx, campaignID, day, decimal.RequireFromString("2.5"), &cap)
		require.NoError(t, err)
		assert.True(t, accepted)
		assert.True(t, row.Spend.Equal(decimal.RequireFromString("7.5")))
		assert.Equal(t, 3, row.JobsCount)
		assert.Equal(t, campaignID, row.CampaignID)
		assert.Equal(t, day, row.Day)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil cap passes NULL", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("INSERT INTO generation_limits").
			WithArgs(campaignID, day, decimal.NewFromInt(1), nil).
			WillReturnRows(sqlmock.NewRows([]string{"spend", "jobs_count", "created_at", "updated_at"}).
				AddRow("1", 1, now, now))

		accepted, _, err := repo.Reserve(ctx, campaignID, day, decimal.NewFromInt(1), nil)
		require.NoError(t, err)
		assert.True(t, accepted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matched row means the cap refused the increment", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		cap := decimal.NewFromInt(10)

		mock.ExpectQuery("INSERT INTO generation_limits").
			WillReturnError(sql.ErrNoRows)

		accepted, row, err := repo.Reserve(ctx, campaignID, day, decimal.NewFromInt(5), &cap)
		require.NoError(t, err)
		assert.False(t, accepted)
		assert.Nil(t, row)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure maps to ledger contention", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("INSERT INTO generation_limits").
			WillReturnError(&pq.Error{Code: "40001"})

		_, _, err := repo.Reserve(ctx, campaignID, day, decimal.NewFromInt(1), nil)
		assert.ErrorIs(t, err, services.ErrLedgerContention)
	})

	t.Run("deadlock maps to ledger contention", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("INSERT INTO generation_limits").
			WillReturnError(&pq.Error{Code: "40P01"})

		_, _, err := repo.Reserve(ctx, campaignID, day, decimal.NewFromInt(1), nil)
		assert.ErrorIs(t, err, services.ErrLedgerContention)
	})

	t.Run("other database errors pass through", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("INSERT INTO generation_limits").
			WillReturnError(&pq.Error{Code: "23505"})

		_, _, err := repo.Reserve(ctx, campaignID, day, decimal.NewFromInt(1), nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, services.ErrLedgerContention)
	})
}

func TestGenerationLimitRepository_Get(t *testing.T) {
	ctx := context.Background()
	campaignID := uuid.New()
	now := time.Now().UTC()

	t.Run("returns row with formatted day key", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		dayDate := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT campaign_id, day, spend, jobs_count").
			WithArgs(campaignID, "2026-06-15").
			WillReturnRows(sqlmock.NewRows([]string{"campaign_id", "day", "spend", "jobs_count", "created_at", "updated_at"}).
				AddRow(campaignID, dayDate, "4.2", 2, now, now))

		row, err := repo.Get(ctx, campaignID, "2026-06-15")
		require.NoError(t, err)
		assert.Equal(t, "2026-06-15", row.Day)
		assert.True(t, row.Spend.Equal(decimal.RequireFromString("4.2")))
		assert.Equal(t, 2, row.JobsCount)
	})

	t.Run("missing row maps to domain not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("SELECT campaign_id, day, spend, jobs_count").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(ctx, campaignID, "2026-06-15")
		assert.ErrorIs(t, err, services.ErrLedgerRowNotFound)
		assert.True(t, services.IsNotFoundError(err))
	})
}
