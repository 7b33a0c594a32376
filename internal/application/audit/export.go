package audit

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/domain/shared"
	"github.com/merchantops/backend/internal/infrastructure/telemetry"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	exportSheet     = "Audit Log"
	exportPageSize  = 200
	exportTimestamp = "2006-01-02 15:04:05"
)

// MaxExportRows caps a single export
const MaxExportRows = 10000

var exportHeaders = []string{
	"Changed At", "Table", "Record ID", "Action", "Changed By", "IP Address", "Old Value", "New Value",
}

// ExportRecorder counts exported rows
type ExportRecorder interface {
	RecordExport(ctx context.Context, rows int)
}

// SetExportRecorder attaches a metrics sink for exports
func (s *Service) SetExportRecorder(r ExportRecorder) {
	s.exports = r
}

// Export writes the entries matching filter as an XLSX workbook, newest
// first. At most MaxExportRows entries are written.
func (s *Service) Export(ctx context.Context, filter audit.LogFilter, w io.Writer) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "audit", "export")
	defer span.End()

	rows, err := s.export(ctx, filter, w)
	telemetry.SetAttributes(span, "audit.export.rows", rows)
	if err != nil {
		telemetry.RecordError(span, err)
		return rows, err
	}
	if s.exports != nil {
		s.exports.RecordExport(ctx, rows)
	}
	return rows, nil
}

func (s *Service) export(ctx context.Context, filter audit.LogFilter, w io.Writer) (int, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return 0, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return 0, fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return 0, err
	}

	caser := cases.Title(language.English)
	// entries committed while paging would shift later pages
	cutoff := time.Now().UTC()
	if filter.To == nil || filter.To.After(cutoff) {
		filter.To = &cutoff
	}
	filter.Filter = shared.Filter{
		Page:     1,
		PageSize: exportPageSize,
		OrderBy:  "changed_at",
		OrderDir: "desc",
		Search:   filter.Search,
	}

	rows := 0
	for rows < MaxExportRows {
		logs, err := s.logs.FindAll(ctx, filter)
		if err != nil {
			return rows, err
		}
		for _, l := range logs {
			if rows >= MaxExportRows {
				break
			}
			cell, err := excelize.CoordinatesToCellName(1, rows+2)
			if err != nil {
				return rows, err
			}
			row := []any{
				l.ChangedAt.UTC().Format(exportTimestamp),
				caser.String(strings.ReplaceAll(l.Table.String(), "_", " ")),
				l.RecordID,
				l.Action.String(),
				l.ChangedBy,
				l.IPAddress,
				snapshotText(l.OldValue),
				snapshotText(l.NewValue),
			}
			if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
				return rows, err
			}
			rows++
		}
		if len(logs) < exportPageSize {
			break
		}
		filter.Page++
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 20)
	_ = f.SetColWidth(exportSheet, "B", "B", 26)
	_ = f.SetColWidth(exportSheet, "C", "C", 38)
	_ = f.SetColWidth(exportSheet, "D", "F", 16)
	_ = f.SetColWidth(exportSheet, "G", "H", 60)

	if err := f.Write(w); err != nil {
		return rows, fmt.Errorf("write workbook: %w", err)
	}
	return rows, nil
}

func snapshotText(s audit.Snapshot) string {
	raw, err := s.JSON()
	if err != nil || raw == nil {
		return ""
	}
	return string(raw)
}
