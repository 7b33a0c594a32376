// Package payments serves the read-only payment views of the dashboard
package payments

import (
	"context"
	"time"

	"github.com/merchantops/backend/internal/domain/payments"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Summary is the dashboard's daily overview
type Summary struct {
	From            time.Time               `json:"from"`
	To              time.Time               `json:"to"`
	Gateways        []payments.GatewayTotal `json:"gateways"`
	TotalVolume     decimal.Decimal         `json:"totalVolume"`
	SuccessCount    int64                   `json:"successCount"`
	FailedCount     int64                   `json:"failedCount"`
	PendingCount    int64                   `json:"pendingCount"`
	BalanceDate     *time.Time              `json:"balanceDate,omitempty"`
	ClosingBalances decimal.Decimal         `json:"closingBalances"`
}

// Service reads transactions and balances
type Service struct {
	transactions payments.TransactionRepository
	balances     payments.BalanceRepository
}

// NewService creates a new Service
func NewService(transactions payments.TransactionRepository, balances payments.BalanceRepository) *Service {
	return &Service{transactions: transactions, balances: balances}
}

// ListTransactions returns a page of gateway transactions
func (s *Service) ListTransactions(ctx context.Context, filter payments.TransactionFilter) (*shared.Paginated[payments.TransactionLog], error) {
	if filter.Gateway != "" && !filter.Gateway.IsValid() {
		return nil, shared.NewInvalidRequestError("unknown gateway %q", filter.Gateway)
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, shared.NewInvalidRequestError("unknown status %q", filter.Status)
	}
	filter.Filter = filter.Filter.Normalize()

	items, err := s.transactions.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.transactions.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListBalances returns a page of daily balances
func (s *Service) ListBalances(ctx context.Context, filter payments.BalanceFilter) (*shared.Paginated[payments.DailyBalance], error) {
	filter.Filter = filter.Filter.Normalize()

	items, err := s.balances.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.balances.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Summary aggregates the UTC day containing day. The independent queries
// run concurrently; the first failure cancels the rest.
func (s *Service) Summary(ctx context.Context, day time.Time) (*Summary, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	out := &Summary{From: from, To: to, TotalVolume: decimal.Zero, ClosingBalances: decimal.Zero}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		totals, err := s.transactions.TotalsByGateway(gctx, from, to)
		if err != nil {
			return err
		}
		out.Gateways = totals
		for _, t := range totals {
			out.TotalVolume = out.TotalVolume.Add(t.Amount)
			out.SuccessCount += t.Count
		}
		return nil
	})
	g.Go(func() error {
		n, err := s.transactions.CountByStatus(gctx, payments.TransactionStatusFailed, from, to)
		out.FailedCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.transactions.CountByStatus(gctx, payments.TransactionStatusPending, from, to)
		out.PendingCount = n
		return err
	})
	g.Go(func() error {
		latest, err := s.balances.LatestDate(gctx)
		if err != nil || latest == nil {
			return err
		}
		sum, err := s.balances.SumClosingOn(gctx, *latest)
		if err != nil {
			return err
		}
		out.BalanceDate = latest
		out.ClosingBalances = sum
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.Gateways == nil {
		out.Gateways = []payments.GatewayTotal{}
	}
	return out, nil
}
