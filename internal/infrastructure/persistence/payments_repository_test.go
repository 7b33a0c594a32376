package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/payments"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/merchantops/backend/internal/infrastructure/persistence/models"
	"github.com/merchantops/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedTransactions(t *testing.T, db *gorm.DB, day time.Time) {
	t.Helper()
	rows := []models.TransactionLogModel{
		{Gateway: payments.GatewayArifPay, Amount: decimal.NewFromInt(100), Status: payments.TransactionStatusSuccess},
		{Gateway: payments.GatewayArifPay, Amount: decimal.NewFromInt(50), Status: payments.TransactionStatusSuccess},
		{Gateway: payments.GatewayQR, Amount: decimal.NewFromInt(25), Status: payments.TransactionStatusSuccess},
		{Gateway: payments.GatewayQR, Amount: decimal.NewFromInt(999), Status: payments.TransactionStatusFailed},
	}
	for i := range rows {
		rows[i].ID = uuid.New()
		rows[i].Reference = uuid.NewString()
		rows[i].AccountNumber = "ACC001"
		rows[i].Currency = "ETB"
		rows[i].TransactedAt = day.Add(time.Duration(i+1) * time.Hour)
	}
	require.NoError(t, db.Create(&rows).Error)
}

func TestGormTransactionRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t, Models()...)
	repo := NewGormTransactionRepository(db)
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	seedTransactions(t, db, day)

	t.Run("totals only successful volume per gateway", func(t *testing.T) {
		totals, err := repo.TotalsByGateway(ctx, day, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		require.Len(t, totals, 2)

		byGateway := map[payments.Gateway]payments.GatewayTotal{}
		for _, tot := range totals {
			byGateway[tot.Gateway] = tot
		}
		assert.Equal(t, int64(2), byGateway[payments.GatewayArifPay].Count)
		assert.True(t, decimal.NewFromInt(150).Equal(byGateway[payments.GatewayArifPay].Amount))
		assert.True(t, decimal.NewFromInt(25).Equal(byGateway[payments.GatewayQR].Amount))
	})

	t.Run("counts by status", func(t *testing.T) {
		n, err := repo.CountByStatus(ctx, payments.TransactionStatusFailed, day, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.CountByStatus(ctx, payments.TransactionStatusFailed, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2))
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("lists newest first with filters", func(t *testing.T) {
		filter := payments.TransactionFilter{Filter: shared.DefaultFilter(), Gateway: payments.GatewayQR}
		txs, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, payments.TransactionStatusFailed, txs[0].Status)

		total, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestGormBalanceRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t, Models()...)
	repo := NewGormBalanceRepository(db)

	t.Run("latest date is nil without balances", func(t *testing.T) {
		latest, err := repo.LatestDate(ctx)
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	day1 := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	balances := []models.DailyBalanceModel{
		{AccountNumber: "ACC001", BalanceDate: day1, ClosingBalance: decimal.NewFromInt(10)},
		{AccountNumber: "ACC001", BalanceDate: day2, ClosingBalance: decimal.NewFromInt(30)},
		{AccountNumber: "ACC002", BalanceDate: day2, ClosingBalance: decimal.NewFromInt(12)},
	}
	for i := range balances {
		balances[i].ID = uuid.New()
	}
	require.NoError(t, db.Create(&balances).Error)

	t.Run("latest date", func(t *testing.T) {
		latest, err := repo.LatestDate(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.True(t, day2.Equal(*latest))
	})

	t.Run("sums closing balances on a day", func(t *testing.T) {
		sum, err := repo.SumClosingOn(ctx, day2)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(42).Equal(sum), "got %s", sum)

		sum, err = repo.SumClosingOn(ctx, day2.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	t.Run("filters by account", func(t *testing.T) {
		filter := payments.BalanceFilter{Filter: shared.DefaultFilter(), AccountNumber: "ACC001"}
		rows, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.True(t, day2.Equal(rows[0].BalanceDate))
	})
}
