package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"gorm.io/datatypes"
)

// AuditLogModel is the persistence model for audit entries.
// Rows are inserted by the audit writer only and never modified.
type AuditLogModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Table     string         `gorm:"column:table_name;size:64;not null;index:idx_audit_logs_record,priority:1"`
	RecordID  string         `gorm:"column:record_id;size:64;not null;index:idx_audit_logs_record,priority:2"`
	Action    audit.Action   `gorm:"column:action;size:16;not null;index"`
	OldValue  datatypes.JSON `gorm:"column:old_value"`
	NewValue  datatypes.JSON `gorm:"column:new_value"`
	ChangedBy string         `gorm:"column:changed_by;size:100;not null;index"`
	ChangedAt time.Time      `gorm:"column:changed_at;not null;index"`
	IPAddress string         `gorm:"column:ip_address;size:45"`
	UserAgent string         `gorm:"column:user_agent;type:text"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain audit entry.
// Unknown table names are kept as-is so old entries stay readable.
func (m *AuditLogModel) ToDomain() (*audit.Log, error) {
	oldValue, err := audit.ParseSnapshot(m.OldValue)
	if err != nil {
		return nil, fmt.Errorf("audit log %s old_value: %w", m.ID, err)
	}
	newValue, err := audit.ParseSnapshot(m.NewValue)
	if err != nil {
		return nil, fmt.Errorf("audit log %s new_value: %w", m.ID, err)
	}

	return &audit.Log{
		ID:        m.ID,
		Table:     audit.Table(m.Table),
		RecordID:  m.RecordID,
		Action:    m.Action,
		OldValue:  oldValue,
		NewValue:  newValue,
		ChangedBy: m.ChangedBy,
		ChangedAt: m.ChangedAt,
		IPAddress: m.IPAddress,
		UserAgent: m.UserAgent,
	}, nil
}

// AuditLogModelFromDomain builds the persistence model for a new entry
func AuditLogModelFromDomain(l *audit.Log) (*AuditLogModel, error) {
	oldValue, err := l.OldValue.JSON()
	if err != nil {
		return nil, err
	}
	newValue, err := l.NewValue.JSON()
	if err != nil {
		return nil, err
	}

	return &AuditLogModel{
		ID:        l.ID,
		Table:     l.Table.String(),
		RecordID:  l.RecordID,
		Action:    l.Action,
		OldValue:  datatypes.JSON(oldValue),
		NewValue:  datatypes.JSON(newValue),
		ChangedBy: l.ChangedBy,
		ChangedAt: l.ChangedAt,
		IPAddress: l.IPAddress,
		UserAgent: l.UserAgent,
	}, nil
}
