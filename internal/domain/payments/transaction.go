package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionLog is a single gateway transaction
type TransactionLog struct {
	ID            uuid.UUID         `json:"id"`
	Gateway       Gateway           `json:"gateway"`
	Reference     string            `json:"reference"`
	AccountNumber string            `json:"accountNumber"`
	BranchID      *uuid.UUID        `json:"branchId,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Status        TransactionStatus `json:"status"`
	Description   string            `json:"description,omitempty"`
	TransactedAt  time.Time         `json:"transactedAt"`
}

// DailyBalance is the end-of-day position of one account
type DailyBalance struct {
	ID             uuid.UUID       `json:"id"`
	AccountNumber  string          `json:"accountNumber"`
	BranchID       *uuid.UUID      `json:"branchId,omitempty"`
	BalanceDate    time.Time       `json:"balanceDate"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	TotalCredit    decimal.Decimal `json:"totalCredit"`
	TotalDebit     decimal.Decimal `json:"totalDebit"`
}

// NetMovement returns credits minus debits for the day
func (b DailyBalance) NetMovement() decimal.Decimal {
	return b.TotalCredit.Sub(b.TotalDebit)
}

// TransactionFilter narrows transaction queries
type TransactionFilter struct {
	shared.Filter
	Gateway       Gateway
	Status        TransactionStatus
	AccountNumber string
	BranchID      *uuid.UUID
	From          *time.Time
	To            *time.Time
}

// BalanceFilter narrows daily balance queries
type BalanceFilter struct {
	shared.Filter
	AccountNumber string
	BranchID      *uuid.UUID
	From          *time.Time
	To            *time.Time
}

// GatewayTotal aggregates successful volume per gateway
type GatewayTotal struct {
	Gateway Gateway         `json:"gateway"`
	Count   int64           `json:"count"`
	Amount  decimal.Decimal `json:"amount"`
}

// TransactionRepository is the read side of gateway transactions
type TransactionRepository interface {
	FindAll(ctx context.Context, filter TransactionFilter) ([]TransactionLog, error)
	Count(ctx context.Context, filter TransactionFilter) (int64, error)
	TotalsByGateway(ctx context.Context, from, to time.Time) ([]GatewayTotal, error)
	CountByStatus(ctx context.Context, status TransactionStatus, from, to time.Time) (int64, error)
}

// BalanceRepository is the read side of daily balances
type BalanceRepository interface {
	FindAll(ctx context.Context, filter BalanceFilter) ([]DailyBalance, error)
	Count(ctx context.Context, filter BalanceFilter) (int64, error)
	LatestDate(ctx context.Context) (*time.Time, error)
	SumClosingOn(ctx context.Context, day time.Time) (decimal.Decimal, error)
}
