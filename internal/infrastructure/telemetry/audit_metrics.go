package telemetry

import (
	"context"
	"fmt"

	"github.com/merchantops/backend/internal/domain/audit"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "merchantops-backend/audit"

var (
	AttrAuditTable  = attribute.Key("audit.table")
	AttrAuditAction = attribute.Key("audit.action")
)

// AuditMetrics counts committed audited mutations by table and action.
type AuditMetrics struct {
	mutations metric.Int64Counter
	exports   metric.Int64Counter
}

// NewAuditMetrics registers the audit instruments on meter.
func NewAuditMetrics(meter metric.Meter) (*AuditMetrics, error) {
	mutations, err := meter.Int64Counter(
		"audit_mutations_total",
		metric.WithDescription("Committed audited writes"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter audit_mutations_total: %w", err)
	}
	exports, err := meter.Int64Counter(
		"audit_export_rows_total",
		metric.WithDescription("Audit log rows written to spreadsheet exports"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter audit_export_rows_total: %w", err)
	}
	return &AuditMetrics{mutations: mutations, exports: exports}, nil
}

// RecordMutation is called once per committed audit entry.
func (m *AuditMetrics) RecordMutation(ctx context.Context, table audit.Table, action audit.Action) {
	m.mutations.Add(ctx, 1, metric.WithAttributes(
		AttrAuditTable.String(table.String()),
		AttrAuditAction.String(action.String()),
	))
}

// RecordExport adds the number of rows written by one export.
func (m *AuditMetrics) RecordExport(ctx context.Context, rows int) {
	if rows <= 0 {
		return
	}
	m.exports.Add(ctx, int64(rows))
}
