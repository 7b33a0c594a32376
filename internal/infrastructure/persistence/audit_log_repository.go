package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/merchantops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAuditLogRepository implements audit.LogRepository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormAuditLogRepository) WithTx(tx *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: tx}
}

// FindByID finds an audit entry by its ID
func (r *GormAuditLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*audit.Log, error) {
	var model models.AuditLogModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("audit log", id)
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll returns a page of audit entries, newest first unless the filter
// asks for another order
func (r *GormAuditLogRepository) FindAll(ctx context.Context, filter audit.LogFilter) ([]audit.Log, error) {
	filter.Filter = filter.Filter.Normalize()

	var logModels []models.AuditLogModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.AuditLogModel{}), filter)

	sortField := ValidateSortField(filter.OrderBy, AuditLogSortFields, "changed_at")
	// id breaks ties so consecutive pages never overlap
	query = query.Order(orderBy(sortField, filter.OrderDir)).
		Order(orderBy("id", filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize)

	if err := query.Find(&logModels).Error; err != nil {
		return nil, err
	}
	return toDomainLogs(logModels)
}

// FindByRecord returns the full history of one record in insertion order
func (r *GormAuditLogRepository) FindByRecord(ctx context.Context, table audit.Table, recordID string) ([]audit.Log, error) {
	var logModels []models.AuditLogModel
	err := r.db.WithContext(ctx).
		Where("table_name = ? AND record_id = ?", table.String(), recordID).
		Order("changed_at ASC, id ASC").
		Find(&logModels).Error
	if err != nil {
		return nil, err
	}
	return toDomainLogs(logModels)
}

// Count counts audit entries matching the filter
func (r *GormAuditLogRepository) Count(ctx context.Context, filter audit.LogFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.AuditLogModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies every filter criterion except paging and ordering
func (r *GormAuditLogRepository) applyFilter(query *gorm.DB, filter audit.LogFilter) *gorm.DB {
	if filter.Table != "" {
		query = query.Where("table_name = ?", filter.Table.String())
	}
	if filter.RecordID != "" {
		query = query.Where("record_id = ?", filter.RecordID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ChangedBy != "" {
		query = query.Where("changed_by = ?", filter.ChangedBy)
	}
	if filter.From != nil {
		query = query.Where("changed_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("changed_at <= ?", *filter.To)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(clause.Or(
			clause.Like{Column: clause.Column{Name: "record_id"}, Value: pattern},
			clause.Like{Column: clause.Column{Name: "changed_by"}, Value: pattern},
		))
	}
	return query
}

func toDomainLogs(logModels []models.AuditLogModel) ([]audit.Log, error) {
	logs := make([]audit.Log, 0, len(logModels))
	for i := range logModels {
		l, err := logModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, nil
}

// Ensure GormAuditLogRepository implements audit.LogRepository
var _ audit.LogRepository = (*GormAuditLogRepository)(nil)
