// Package audit exposes the audit trail to the dashboard: browsing,
// per-record history, restoring deleted rows and spreadsheet export.
package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/merchantops/backend/internal/infrastructure/telemetry"
)

// RestoreResult is the outcome of restoring a deleted record
type RestoreResult struct {
	Record audit.Record
	Log    *audit.Log
}

// Service handles audit log queries and restores
type Service struct {
	logs    audit.LogRepository
	writer  audit.Writer
	exports ExportRecorder
}

// NewService creates a new Service
func NewService(logs audit.LogRepository, writer audit.Writer) *Service {
	return &Service{logs: logs, writer: writer}
}

// List returns a page of audit entries
func (s *Service) List(ctx context.Context, filter audit.LogFilter) (*shared.Paginated[audit.Log], error) {
	filter.Filter = filter.Filter.Normalize()

	logs, err := s.logs.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.logs.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(logs, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Get returns one audit entry
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*audit.Log, error) {
	return s.logs.FindByID(ctx, id)
}

// History returns every entry for one record, oldest first
func (s *Service) History(ctx context.Context, table audit.Table, recordID string) ([]audit.Log, error) {
	if !table.IsValid() {
		return nil, shared.NewInvalidRequestError("unknown table %q", table)
	}
	if recordID == "" {
		return nil, shared.NewInvalidRequestError("record id cannot be empty")
	}
	return s.logs.FindByRecord(ctx, table, recordID)
}

// Restore recreates the row captured by a DELETE entry. The restored row
// gets a new identity; the original id is kept only in the audit trail.
func (s *Service) Restore(ctx context.Context, logID uuid.UUID, actor audit.Actor) (*RestoreResult, error) {
	if logID == uuid.Nil {
		return nil, shared.NewInvalidRequestError("auditLogId is required")
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "audit", "restore")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrAuditLogID, logID.String(), telemetry.SpanAttrActor, actor.ID)

	rec, entry, err := s.writer.Restore(ctx, logID, actor)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTable, entry.Table.String(),
		telemetry.SpanAttrRecordID, entry.RecordID,
	)
	return &RestoreResult{Record: rec, Log: entry}, nil
}
