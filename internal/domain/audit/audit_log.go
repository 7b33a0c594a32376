package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/shared"
)

// Actor identifies who performed a mutation and from where
type Actor struct {
	ID        string
	IPAddress string
	UserAgent string
}

// Log is one immutable audit entry. Entries are appended by the audit writer
// inside the same transaction as the mutation they describe and are never
// updated or deleted afterwards.
type Log struct {
	ID        uuid.UUID `json:"id"`
	Table     Table     `json:"tableName"`
	RecordID  string    `json:"recordId"`
	Action    Action    `json:"action"`
	OldValue  Snapshot  `json:"oldValue"`
	NewValue  Snapshot  `json:"newValue"`
	ChangedBy string    `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// NewLog creates an audit entry stamped with at, which must be the same
// instant the mutation stamped on the row.
//
// A DELETE never carries a new value; UPDATE and DELETE always carry the
// pre-image; every action except DELETE carries the post-image.
func NewLog(table Table, recordID string, action Action, oldValue, newValue Snapshot, actor Actor, at time.Time) (*Log, error) {
	if !table.IsValid() {
		return nil, shared.NewInvalidRequestError("table %q is not tracked", table)
	}
	if recordID == "" {
		return nil, shared.NewInvalidRequestError("record id cannot be empty")
	}
	if !action.IsValid() {
		return nil, shared.NewInvalidRequestError("invalid audit action %q", action)
	}
	if actor.ID == "" {
		return nil, shared.NewInvalidRequestError("audit entry requires an actor")
	}

	switch action {
	case ActionDelete:
		if newValue != nil {
			return nil, shared.NewInvalidRequestError("DELETE entries cannot carry a new value")
		}
	default:
		if newValue == nil {
			return nil, shared.NewInvalidRequestError("%s entries require a new value", action)
		}
	}
	if (action == ActionUpdate || action == ActionDelete) && oldValue == nil {
		return nil, shared.NewInvalidRequestError("%s entries require an old value", action)
	}

	return &Log{
		ID:        uuid.New(),
		Table:     table,
		RecordID:  recordID,
		Action:    action,
		OldValue:  oldValue,
		NewValue:  newValue,
		ChangedBy: actor.ID,
		ChangedAt: at.UTC(),
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
	}, nil
}

// ValidateForRestore checks that the entry describes a deletion whose
// pre-image is still available.
func (l *Log) ValidateForRestore() error {
	if l == nil {
		return shared.NewInvalidRequestError("audit log entry not found")
	}
	if l.Action != ActionDelete {
		return shared.NewInvalidRequestError("only DELETE entries can be restored, entry %s is %s", l.ID, l.Action)
	}
	if len(l.OldValue) == 0 {
		return shared.NewInvalidRequestError("audit log entry %s has no stored old value", l.ID)
	}
	if !l.Table.IsValid() {
		return shared.NewInvalidRequestError("table %q cannot be restored", l.Table)
	}
	return nil
}
