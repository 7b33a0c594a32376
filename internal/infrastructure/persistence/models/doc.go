// Package models contains GORM persistence models that map to database tables.
//
// Tracked models mirror the legacy dashboard schema, including its mixed
// identity column names (ID, Oid, id) and upper-case insert/update metadata
// columns. JSON tags match the column names so that audit snapshots carry
// the same keys the dashboard reads.
//
// Structure:
//   - base.go: TrackedRecord and the explicit table to model mapping
//   - tracked.go: models for every audited table
//   - audit_log.go: append-only audit entries
//   - payments.go: read-only transaction and balance models
package models
