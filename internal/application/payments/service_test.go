package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/merchantops/backend/internal/domain/payments"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTransactionRepository is a mock implementation of payments.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindAll(ctx context.Context, filter payments.TransactionFilter) ([]payments.TransactionLog, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payments.TransactionLog), args.Error(1)
}

func (m *MockTransactionRepository) Count(ctx context.Context, filter payments.TransactionFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) TotalsByGateway(ctx context.Context, from, to time.Time) ([]payments.GatewayTotal, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payments.GatewayTotal), args.Error(1)
}

func (m *MockTransactionRepository) CountByStatus(ctx context.Context, status payments.TransactionStatus, from, to time.Time) (int64, error) {
	args := m.Called(ctx, status, from, to)
	return args.Get(0).(int64), args.Error(1)
}

// MockBalanceRepository is a mock implementation of payments.BalanceRepository
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) FindAll(ctx context.Context, filter payments.BalanceFilter) ([]payments.DailyBalance, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payments.DailyBalance), args.Error(1)
}

func (m *MockBalanceRepository) Count(ctx context.Context, filter payments.BalanceFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBalanceRepository) LatestDate(ctx context.Context) (*time.Time, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockBalanceRepository) SumClosingOn(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func TestService_Summary(t *testing.T) {
	day := time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC)
	from := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	t.Run("aggregates all sources", func(t *testing.T) {
		txs := new(MockTransactionRepository)
		bals := new(MockBalanceRepository)
		svc := NewService(txs, bals)
		latest := from.AddDate(0, 0, -1)

		txs.On("TotalsByGateway", mock.Anything, from, to).Return([]payments.GatewayTotal{
			{Gateway: payments.GatewayArifPay, Count: 2, Amount: decimal.NewFromInt(150)},
			{Gateway: payments.GatewayQR, Count: 1, Amount: decimal.NewFromInt(25)},
		}, nil)
		txs.On("CountByStatus", mock.Anything, payments.TransactionStatusFailed, from, to).Return(int64(3), nil)
		txs.On("CountByStatus", mock.Anything, payments.TransactionStatusPending, from, to).Return(int64(1), nil)
		bals.On("LatestDate", mock.Anything).Return(&latest, nil)
		bals.On("SumClosingOn", mock.Anything, latest).Return(decimal.NewFromInt(9000), nil)

		summary, err := svc.Summary(context.Background(), day)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(175).Equal(summary.TotalVolume))
		assert.Equal(t, int64(3), summary.SuccessCount)
		assert.Equal(t, int64(3), summary.FailedCount)
		assert.Equal(t, int64(1), summary.PendingCount)
		assert.Equal(t, &latest, summary.BalanceDate)
		assert.True(t, decimal.NewFromInt(9000).Equal(summary.ClosingBalances))
	})

	t.Run("no balances yet", func(t *testing.T) {
		txs := new(MockTransactionRepository)
		bals := new(MockBalanceRepository)
		svc := NewService(txs, bals)

		txs.On("TotalsByGateway", mock.Anything, from, to).Return(nil, nil)
		txs.On("CountByStatus", mock.Anything, mock.Anything, from, to).Return(int64(0), nil)
		bals.On("LatestDate", mock.Anything).Return(nil, nil)

		summary, err := svc.Summary(context.Background(), day)
		require.NoError(t, err)
		assert.Nil(t, summary.BalanceDate)
		assert.Empty(t, summary.Gateways)
		assert.NotNil(t, summary.Gateways)
		bals.AssertNotCalled(t, "SumClosingOn", mock.Anything, mock.Anything)
	})

	t.Run("propagates the first error", func(t *testing.T) {
		txs := new(MockTransactionRepository)
		bals := new(MockBalanceRepository)
		svc := NewService(txs, bals)
		boom := errors.New("db down")

		txs.On("TotalsByGateway", mock.Anything, from, to).Return(nil, boom)
		txs.On("CountByStatus", mock.Anything, mock.Anything, from, to).Return(int64(0), nil)
		bals.On("LatestDate", mock.Anything).Return(nil, nil)

		_, err := svc.Summary(context.Background(), day)
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_ListTransactions(t *testing.T) {
	txs := new(MockTransactionRepository)
	svc := NewService(txs, new(MockBalanceRepository))

	_, err := svc.ListTransactions(context.Background(), payments.TransactionFilter{Gateway: "PAYPAL"})
	assert.True(t, shared.IsInvalidRequest(err))

	txs.On("FindAll", mock.Anything, mock.Anything).Return([]payments.TransactionLog{{Reference: "r1"}}, nil)
	txs.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	page, err := svc.ListTransactions(context.Background(), payments.TransactionFilter{Gateway: payments.GatewayQR})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Page)
}

func TestService_ListBalances(t *testing.T) {
	bals := new(MockBalanceRepository)
	svc := NewService(new(MockTransactionRepository), bals)

	bals.On("FindAll", mock.Anything, mock.Anything).Return([]payments.DailyBalance{}, nil)
	bals.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

	page, err := svc.ListBalances(context.Background(), payments.BalanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalPages)
	assert.Empty(t, page.Items)
}
