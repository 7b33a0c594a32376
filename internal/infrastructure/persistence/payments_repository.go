package persistence

import (
	"context"
	"time"

	"github.com/merchantops/backend/internal/domain/payments"
	"github.com/merchantops/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTransactionRepository implements payments.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindAll returns a page of transactions, newest first by default
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter payments.TransactionFilter) ([]payments.TransactionLog, error) {
	filter.Filter = filter.Filter.Normalize()

	var rows []models.TransactionLogModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TransactionLogModel{}), filter)
	sortField := ValidateSortField(filter.OrderBy, TransactionSortFields, "transacted_at")
	query = query.Order(orderBy(sortField, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]payments.TransactionLog, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Count counts transactions matching the filter
func (r *GormTransactionRepository) Count(ctx context.Context, filter payments.TransactionFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TransactionLogModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// TotalsByGateway sums successful transactions per gateway in [from, to)
func (r *GormTransactionRepository) TotalsByGateway(ctx context.Context, from, to time.Time) ([]payments.GatewayTotal, error) {
	var rows []struct {
		Gateway payments.Gateway
		Count   int64
		Amount  decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.TransactionLogModel{}).
		Select("gateway, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Where("status = ? AND transacted_at >= ? AND transacted_at < ?", payments.TransactionStatusSuccess, from, to).
		Group("gateway").
		Order("gateway").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make([]payments.GatewayTotal, len(rows))
	for i, row := range rows {
		totals[i] = payments.GatewayTotal{Gateway: row.Gateway, Count: row.Count, Amount: row.Amount}
	}
	return totals, nil
}

// CountByStatus counts transactions with status in [from, to)
func (r *GormTransactionRepository) CountByStatus(ctx context.Context, status payments.TransactionStatus, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TransactionLogModel{}).
		Where("status = ? AND transacted_at >= ? AND transacted_at < ?", status, from, to).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter payments.TransactionFilter) *gorm.DB {
	if filter.Gateway != "" {
		query = query.Where("gateway = ?", filter.Gateway)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AccountNumber != "" {
		query = query.Where("account_number = ?", filter.AccountNumber)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.From != nil {
		query = query.Where("transacted_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("transacted_at < ?", *filter.To)
	}
	if filter.Search != "" {
		query = query.Where("reference LIKE ?", "%"+filter.Search+"%")
	}
	return query
}

// GormBalanceRepository implements payments.BalanceRepository using GORM
type GormBalanceRepository struct {
	db *gorm.DB
}

// NewGormBalanceRepository creates a new GormBalanceRepository
func NewGormBalanceRepository(db *gorm.DB) *GormBalanceRepository {
	return &GormBalanceRepository{db: db}
}

// FindAll returns a page of daily balances, latest day first by default
func (r *GormBalanceRepository) FindAll(ctx context.Context, filter payments.BalanceFilter) ([]payments.DailyBalance, error) {
	filter.Filter = filter.Filter.Normalize()

	var rows []models.DailyBalanceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DailyBalanceModel{}), filter)
	sortField := ValidateSortField(filter.OrderBy, BalanceSortFields, "balance_date")
	query = query.Order(orderBy(sortField, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]payments.DailyBalance, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Count counts daily balances matching the filter
func (r *GormBalanceRepository) Count(ctx context.Context, filter payments.BalanceFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DailyBalanceModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LatestDate returns the most recent balance date, or nil when there are
// no balances yet
func (r *GormBalanceRepository) LatestDate(ctx context.Context) (*time.Time, error) {
	var row models.DailyBalanceModel
	result := r.db.WithContext(ctx).
		Select("balance_date").
		Order("balance_date DESC").
		Limit(1).
		Find(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &row.BalanceDate, nil
}

// SumClosingOn sums closing balances of every account on day
func (r *GormBalanceRepository) SumClosingOn(ctx context.Context, day time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.DailyBalanceModel{}).
		Select("SUM(closing_balance) AS total").
		Where("balance_date = ?", day).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Total.Valid {
		return decimal.Zero, nil
	}
	return row.Total.Decimal, nil
}

func (r *GormBalanceRepository) applyFilter(query *gorm.DB, filter payments.BalanceFilter) *gorm.DB {
	if filter.AccountNumber != "" {
		query = query.Where("account_number = ?", filter.AccountNumber)
	}
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.From != nil {
		query = query.Where("balance_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("balance_date <= ?", *filter.To)
	}
	return query
}

var (
	_ payments.TransactionRepository = (*GormTransactionRepository)(nil)
	_ payments.BalanceRepository     = (*GormBalanceRepository)(nil)
)
