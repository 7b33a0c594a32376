package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/merchantops/backend/internal/infrastructure/logger"
	"github.com/merchantops/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MutationRecorder counts committed audited mutations
type MutationRecorder interface {
	RecordMutation(ctx context.Context, table audit.Table, action audit.Action)
}

// AuditWriter is the only write path for tracked tables. Every method runs
// the mutation and its audit entry in one transaction: either both commit or
// neither does.
type AuditWriter struct {
	db        *gorm.DB
	now       func() time.Time
	publisher audit.EventPublisher
	recorder  MutationRecorder
}

// AuditWriterOption configures an AuditWriter
type AuditWriterOption func(*AuditWriter)

// WithEventPublisher forwards every committed entry to p
func WithEventPublisher(p audit.EventPublisher) AuditWriterOption {
	return func(w *AuditWriter) { w.publisher = p }
}

// WithMutationRecorder reports every committed entry to r
func WithMutationRecorder(r MutationRecorder) AuditWriterOption {
	return func(w *AuditWriter) { w.recorder = r }
}

// WithClock replaces the clock that stamps rows and their audit entries
func WithClock(now func() time.Time) AuditWriterOption {
	return func(w *AuditWriter) { w.now = now }
}

// NewAuditWriter creates a new AuditWriter
func NewAuditWriter(db *gorm.DB, opts ...AuditWriterOption) *AuditWriter {
	w := &AuditWriter{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Create inserts a new record built by build and appends a CREATE entry.
// The identity is always generated here; anything build sets is overwritten.
func (w *AuditWriter) Create(ctx context.Context, table audit.Table, actor audit.Actor, build audit.MutateFunc) (audit.Record, *audit.Log, error) {
	var (
		rec   models.TrackedRecord
		entry *audit.Log
	)
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = models.NewTrackedRecord(table)
		if err != nil {
			return shared.WrapInvalidRequest("unknown table", err)
		}
		if err := build(rec); err != nil {
			return err
		}
		at := w.now()
		rec.SetIdentity(uuid.New())
		rec.StampCreated(actor.ID, at)

		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}

		after, err := audit.SnapshotOf(rec)
		if err != nil {
			return err
		}
		entry, err = audit.NewLog(table, rec.Identity().String(), audit.ActionCreate, nil, after, actor, at)
		if err != nil {
			return err
		}
		return appendLog(tx, entry)
	})
	if err != nil {
		return nil, nil, err
	}
	w.committed(ctx, entry)
	return rec, entry, nil
}

// Update loads the record, applies mutate and appends an UPDATE entry holding
// the full pre-image and post-image.
func (w *AuditWriter) Update(ctx context.Context, table audit.Table, id uuid.UUID, actor audit.Actor, mutate audit.MutateFunc) (audit.Record, *audit.Log, error) {
	var (
		rec   models.TrackedRecord
		entry *audit.Log
	)
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = loadTracked(tx, table, id)
		if err != nil {
			return err
		}

		before, err := audit.SnapshotOf(rec)
		if err != nil {
			return err
		}

		if err := mutate(rec); err != nil {
			return err
		}
		// identity is immutable
		rec.SetIdentity(id)
		at := w.now()
		rec.StampUpdated(actor.ID, at)

		if err := tx.Save(rec).Error; err != nil {
			return fmt.Errorf("update %s %s: %w", table, id, err)
		}

		after, err := audit.SnapshotOf(rec)
		if err != nil {
			return err
		}
		entry, err = audit.NewLog(table, id.String(), audit.ActionUpdate, before, after, actor, at)
		if err != nil {
			return err
		}
		return appendLog(tx, entry)
	})
	if err != nil {
		return nil, nil, err
	}
	w.committed(ctx, entry)
	return rec, entry, nil
}

// Delete removes the record and appends a DELETE entry carrying only the
// pre-image.
func (w *AuditWriter) Delete(ctx context.Context, table audit.Table, id uuid.UUID, actor audit.Actor) (audit.Record, *audit.Log, error) {
	var (
		rec   models.TrackedRecord
		entry *audit.Log
	)
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = loadTracked(tx, table, id)
		if err != nil {
			return err
		}

		before, err := audit.SnapshotOf(rec)
		if err != nil {
			return err
		}

		result := tx.Delete(rec)
		if result.Error != nil {
			return fmt.Errorf("delete %s %s: %w", table, id, result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError(table.String(), id)
		}

		entry, err = audit.NewLog(table, id.String(), audit.ActionDelete, before, nil, actor, w.now())
		if err != nil {
			return err
		}
		return appendLog(tx, entry)
	})
	if err != nil {
		return nil, nil, err
	}
	w.committed(ctx, entry)
	return rec, entry, nil
}

// Restore recreates the row captured by a DELETE entry under a new identity
// and appends a RESTORE entry whose old value is the deleted snapshot.
// Restoring the same entry twice creates two rows.
func (w *AuditWriter) Restore(ctx context.Context, logID uuid.UUID, actor audit.Actor) (audit.Record, *audit.Log, error) {
	var (
		rec   models.TrackedRecord
		entry *audit.Log
	)
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.AuditLogModel
		if err := tx.Where("id = ?", logID).Take(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewInvalidRequestError("audit log entry %s not found", logID)
			}
			return fmt.Errorf("load audit log %s: %w", logID, err)
		}

		source, err := m.ToDomain()
		if err != nil {
			return shared.WrapInvalidRequest("audit log entry cannot be decoded", err)
		}
		if err := source.ValidateForRestore(); err != nil {
			return err
		}

		rec, err = models.NewTrackedRecord(source.Table)
		if err != nil {
			return shared.WrapInvalidRequest("table cannot be restored", err)
		}
		sanitized := audit.SanitizeForRestore(source.Table, source.OldValue)
		if err := sanitized.DecodeInto(rec); err != nil {
			return shared.WrapInvalidRequest("stored snapshot does not match the table", err)
		}
		at := w.now()
		rec.SetIdentity(uuid.New())
		rec.StampCreated(actor.ID, at)

		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("restore into %s: %w", source.Table, err)
		}

		after, err := audit.SnapshotOf(rec)
		if err != nil {
			return err
		}
		entry, err = audit.NewLog(source.Table, rec.Identity().String(), audit.ActionRestore, source.OldValue, after, actor, at)
		if err != nil {
			return err
		}
		return appendLog(tx, entry)
	})
	if err != nil {
		return nil, nil, err
	}
	w.committed(ctx, entry)
	return rec, entry, nil
}

// committed runs after the transaction has been committed. Publishing is
// best effort: the mutation is already durable.
func (w *AuditWriter) committed(ctx context.Context, entry *audit.Log) {
	if w.recorder != nil {
		w.recorder.RecordMutation(ctx, entry.Table, entry.Action)
	}
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(ctx, entry); err != nil {
		logger.L(ctx).Warn("failed to publish audit event",
			zap.String("audit_id", entry.ID.String()),
			zap.String("table", entry.Table.String()),
			zap.String("action", entry.Action.String()),
			zap.Error(err),
		)
	}
}

// loadTracked reads and locks a tracked row by its table-specific identity
// column. SQLite has no row locks and ignores the clause.
func loadTracked(tx *gorm.DB, table audit.Table, id uuid.UUID) (models.TrackedRecord, error) {
	rec, err := models.NewTrackedRecord(table)
	if err != nil {
		return nil, shared.WrapInvalidRequest("unknown table", err)
	}
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(clause.Eq{Column: clause.Column{Name: table.IdentityField()}, Value: id}).
		Take(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError(table.String(), id)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", table, id, err)
	}
	return rec, nil
}

func appendLog(tx *gorm.DB, entry *audit.Log) error {
	m, err := models.AuditLogModelFromDomain(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	if err := tx.Create(m).Error; err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Ensure AuditWriter implements audit.Writer
var _ audit.Writer = (*AuditWriter)(nil)
