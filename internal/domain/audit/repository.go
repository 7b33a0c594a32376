package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/shared"
)

// LogFilter narrows audit log queries
type LogFilter struct {
	shared.Filter
	Table     Table
	RecordID  string
	Action    Action
	ChangedBy string
	From      *time.Time
	To        *time.Time
}

// LogRepository is the read side of the audit log.
//
// Entries are append-only: the only writer is the transactional audit
// writer, so no Save or Delete exists here.
type LogRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Log, error)
	FindAll(ctx context.Context, filter LogFilter) ([]Log, error)
	FindByRecord(ctx context.Context, table Table, recordID string) ([]Log, error)
	Count(ctx context.Context, filter LogFilter) (int64, error)
}

// EventPublisher forwards committed audit entries to downstream consumers.
// Publishing happens after commit; a failure never undoes the mutation.
type EventPublisher interface {
	Publish(ctx context.Context, entry *Log) error
}
