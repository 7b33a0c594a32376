package persistence

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/merchantops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTrackedRepository is the read side of the tracked tables. Writes go
// through AuditWriter.
type GormTrackedRepository struct {
	db *gorm.DB
}

// NewGormTrackedRepository creates a new GormTrackedRepository
func NewGormTrackedRepository(db *gorm.DB) *GormTrackedRepository {
	return &GormTrackedRepository{db: db}
}

// FindByID loads one record by its table-specific identity column
func (r *GormTrackedRepository) FindByID(ctx context.Context, table audit.Table, id uuid.UUID) (audit.Record, error) {
	return loadTracked(r.db.WithContext(ctx), table, id)
}

// FindAll returns a page of records from table. Every call hits the
// database; nothing is cached between requests.
func (r *GormTrackedRepository) FindAll(ctx context.Context, table audit.Table, filter shared.Filter) ([]audit.Record, error) {
	filter = filter.Normalize()
	tq := trackedQueryFor(table)

	query := applyTrackedFilter(r.db.WithContext(ctx).Table(table.String()), tq, filter)
	sortField := ValidateSortField(filter.OrderBy, tq.sortFields, tq.defaultSort)
	query = query.Order(orderBy(sortField, sortDirOrDefault(filter.OrderDir, sortField == tq.defaultSort))).
		Offset(filter.Offset()).
		Limit(filter.PageSize)

	switch table {
	case audit.TableAllowedCompanies:
		return findRecords[models.AllowedCompanyModel](query)
	case audit.TableBranches:
		return findRecords[models.BranchModel](query)
	case audit.TableMerchantUsers:
		return findRecords[models.MerchantUserModel](query)
	case audit.TableRoles:
		return findRecords[models.RoleModel](query)
	case audit.TablePromoAds:
		return findRecords[models.PromoAdModel](query)
	case audit.TableArifPayEndpoints:
		return findRecords[models.ArifPayEndpointModel](query)
	case audit.TableControllerConfigs:
		return findRecords[models.ControllerConfigModel](query)
	case audit.TableCoreIntegrationSettings:
		return findRecords[models.CoreIntegrationSettingModel](query)
	default:
		return nil, shared.NewInvalidRequestError("unknown table %q", table)
	}
}

// Count counts records in table matching the filter
func (r *GormTrackedRepository) Count(ctx context.Context, table audit.Table, filter shared.Filter) (int64, error) {
	if !table.IsValid() {
		return 0, shared.NewInvalidRequestError("unknown table %q", table)
	}
	var count int64
	query := applyTrackedFilter(r.db.WithContext(ctx).Table(table.String()), trackedQueryFor(table), filter.Normalize())
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// applyTrackedFilter applies free-text search and exact-match filters.
// Only whitelisted columns can be filtered on.
func applyTrackedFilter(query *gorm.DB, tq trackedQuery, filter shared.Filter) *gorm.DB {
	if filter.Search != "" && len(tq.searchFields) > 0 {
		pattern := "%" + filter.Search + "%"
		likes := make([]clause.Expression, 0, len(tq.searchFields))
		for _, f := range tq.searchFields {
			likes = append(likes, clause.Like{Column: clause.Column{Name: f}, Value: pattern})
		}
		query = query.Where(clause.Or(likes...))
	}

	keys := make([]string, 0, len(filter.Filters))
	for k := range filter.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !tq.sortFields[k] {
			continue
		}
		query = query.Where(clause.Eq{Column: clause.Column{Name: k}, Value: filter.Filters[k]})
	}
	return query
}

// sortDirOrDefault keeps the natural ascending order of a table's default
// column unless the caller asked for something explicit
func sortDirOrDefault(dir string, isDefault bool) string {
	if dir == "" && isDefault {
		return "ASC"
	}
	return dir
}

func findRecords[T any, PT interface {
	*T
	models.TrackedRecord
}](query *gorm.DB) ([]audit.Record, error) {
	var rows []T
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]audit.Record, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out, nil
}

// Ensure GormTrackedRepository implements audit.RecordRepository
var _ audit.RecordRepository = (*GormTrackedRepository)(nil)
