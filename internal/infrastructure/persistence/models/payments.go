package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/payments"
	"github.com/shopspring/decimal"
)

// TransactionLogModel is the persistence model for gateway transactions
type TransactionLogModel struct {
	ID            uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	Gateway       payments.Gateway           `gorm:"size:20;not null;index"`
	Reference     string                     `gorm:"size:100;not null;uniqueIndex"`
	AccountNumber string                     `gorm:"size:50;not null;index"`
	BranchID      *uuid.UUID                 `gorm:"type:uuid;index"`
	Amount        decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	Currency      string                     `gorm:"size:3;not null"`
	Status        payments.TransactionStatus `gorm:"size:20;not null;index"`
	Description   string                     `gorm:"size:255"`
	TransactedAt  time.Time                  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (TransactionLogModel) TableName() string {
	return "transaction_logs"
}

// ToDomain converts the persistence model to a domain TransactionLog
func (m *TransactionLogModel) ToDomain() payments.TransactionLog {
	return payments.TransactionLog{
		ID:            m.ID,
		Gateway:       m.Gateway,
		Reference:     m.Reference,
		AccountNumber: m.AccountNumber,
		BranchID:      m.BranchID,
		Amount:        m.Amount,
		Currency:      m.Currency,
		Status:        m.Status,
		Description:   m.Description,
		TransactedAt:  m.TransactedAt,
	}
}

// DailyBalanceModel is the persistence model for end-of-day balances
type DailyBalanceModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AccountNumber  string          `gorm:"size:50;not null;uniqueIndex:idx_daily_balance_account_date,priority:1"`
	BranchID       *uuid.UUID      `gorm:"type:uuid;index"`
	BalanceDate    time.Time       `gorm:"type:date;not null;uniqueIndex:idx_daily_balance_account_date,priority:2"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ClosingBalance decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalCredit    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalDebit     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (DailyBalanceModel) TableName() string {
	return "daily_balances"
}

// ToDomain converts the persistence model to a domain DailyBalance
func (m *DailyBalanceModel) ToDomain() payments.DailyBalance {
	return payments.DailyBalance{
		ID:             m.ID,
		AccountNumber:  m.AccountNumber,
		BranchID:       m.BranchID,
		BalanceDate:    m.BalanceDate,
		OpeningBalance: m.OpeningBalance,
		ClosingBalance: m.ClosingBalance,
		TotalCredit:    m.TotalCredit,
		TotalDebit:     m.TotalDebit,
	}
}
