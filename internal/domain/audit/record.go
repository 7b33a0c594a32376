package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/shared"
)

// Record is a row of a tracked table. Identity column names differ per
// table (ID, Oid, id), so callers go through Identity instead of a field.
type Record interface {
	AuditTable() Table
	Identity() uuid.UUID
	SetIdentity(id uuid.UUID)
	StampCreated(actor string, at time.Time)
	StampUpdated(actor string, at time.Time)
}

// MutateFunc changes a record in place. Returning an error aborts the
// surrounding transaction.
type MutateFunc func(rec Record) error

// Writer is the only write path for tracked tables. Each call commits the
// mutation and its audit entry together or not at all.
type Writer interface {
	Create(ctx context.Context, table Table, actor Actor, build MutateFunc) (Record, *Log, error)
	Update(ctx context.Context, table Table, id uuid.UUID, actor Actor, mutate MutateFunc) (Record, *Log, error)
	Delete(ctx context.Context, table Table, id uuid.UUID, actor Actor) (Record, *Log, error)
	Restore(ctx context.Context, logID uuid.UUID, actor Actor) (Record, *Log, error)
}

// RecordRepository is the read side of the tracked tables
type RecordRepository interface {
	FindByID(ctx context.Context, table Table, id uuid.UUID) (Record, error)
	FindAll(ctx context.Context, table Table, filter shared.Filter) ([]Record, error)
	Count(ctx context.Context, table Table, filter shared.Filter) (int64, error)
}
