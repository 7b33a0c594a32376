// Package tracked implements the edit operations of the dashboard's
// configuration tables. Every write goes through the audit writer.
package tracked

import (
	"context"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/merchantops/backend/internal/infrastructure/telemetry"
)

// Service handles reads and audited writes of tracked records
type Service struct {
	writer   audit.Writer
	records  audit.RecordRepository
	validate *validator.Validate
	images   *ImageUploader
}

// NewService creates a new Service
func NewService(writer audit.Writer, records audit.RecordRepository) *Service {
	return &Service{
		writer:   writer,
		records:  records,
		validate: newValidator(),
	}
}

// SetImageUploader enables promo image uploads
func (s *Service) SetImageUploader(u *ImageUploader) {
	s.images = u
}

// ImageUploadsEnabled reports whether an object store is configured
func (s *Service) ImageUploadsEnabled() bool {
	return s.images != nil
}

// Get returns one record
func (s *Service) Get(ctx context.Context, table audit.Table, id uuid.UUID) (audit.Record, error) {
	if !table.IsValid() {
		return nil, shared.NewInvalidRequestError("unknown table %q", table)
	}
	return s.records.FindByID(ctx, table, id)
}

// List returns a page of records
func (s *Service) List(ctx context.Context, table audit.Table, filter shared.Filter) (*shared.Paginated[audit.Record], error) {
	if !table.IsValid() {
		return nil, shared.NewInvalidRequestError("unknown table %q", table)
	}
	filter = filter.Normalize()

	items, err := s.records.FindAll(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.records.Count(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Create inserts a record built from fields and logs a CREATE entry
func (s *Service) Create(ctx context.Context, table audit.Table, fields audit.Snapshot, actor audit.Actor) (audit.Record, *audit.Log, error) {
	if !table.IsValid() {
		return nil, nil, shared.NewInvalidRequestError("unknown table %q", table)
	}
	return s.writer.Create(ctx, table, actor, s.applyPatch(audit.SanitizePatch(fields)))
}

// Update applies patch to the record and logs an UPDATE entry. Identity,
// timestamps and insert/update metadata in the patch are ignored.
func (s *Service) Update(ctx context.Context, table audit.Table, id uuid.UUID, patch audit.Snapshot, actor audit.Actor) (audit.Record, *audit.Log, error) {
	if !table.IsValid() {
		return nil, nil, shared.NewInvalidRequestError("unknown table %q", table)
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "tracked", "update")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTable, table.String(),
		telemetry.SpanAttrRecordID, id.String(),
		telemetry.SpanAttrActor, actor.ID,
	)

	rec, entry, err := s.writer.Update(ctx, table, id, actor, s.applyPatch(audit.SanitizePatch(patch)))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAuditLogID, entry.ID.String())
	return rec, entry, nil
}

// Delete removes the record and logs a DELETE entry. The returned record
// is the row as it was before deletion.
func (s *Service) Delete(ctx context.Context, table audit.Table, id uuid.UUID, actor audit.Actor) (audit.Record, *audit.Log, error) {
	if !table.IsValid() {
		return nil, nil, shared.NewInvalidRequestError("unknown table %q", table)
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "tracked", "delete")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTable, table.String(),
		telemetry.SpanAttrRecordID, id.String(),
		telemetry.SpanAttrActor, actor.ID,
	)

	rec, entry, err := s.writer.Delete(ctx, table, id, actor)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAuditLogID, entry.ID.String())
	return rec, entry, nil
}

// applyPatch returns a mutation that decodes patch onto the record and
// validates the result. Keys the table does not have are rejected.
func (s *Service) applyPatch(patch audit.Snapshot) audit.MutateFunc {
	return func(rec audit.Record) error {
		known, err := audit.SnapshotOf(rec)
		if err != nil {
			return err
		}
		var unknown []string
		for k := range patch {
			if !known.Has(k) {
				unknown = append(unknown, k)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return shared.NewInvalidRequestError("unknown fields for %s: %s", rec.AuditTable(), strings.Join(unknown, ", "))
		}

		if err := patch.DecodeInto(rec); err != nil {
			return shared.WrapInvalidRequest("invalid field value", err)
		}
		if err := s.validate.Struct(rec); err != nil {
			return shared.WrapInvalidRequest("validation failed", err)
		}
		return nil
	}
}

// newValidator validates model binding tags and reports JSON field names
func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
