// Package event carries committed audit entries to consumers outside the
// request: a Kafka topic in deployments, an in-process bus otherwise.
package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/merchantops/backend/internal/domain/audit"
)

// EnvelopeVersion is bumped whenever the AuditEvent shape changes incompatibly.
const EnvelopeVersion = 1

// AuditEvent is the wire form of one audit entry.
type AuditEvent struct {
	EventID    uuid.UUID  `json:"eventId"`
	EventType  string     `json:"eventType"`
	Version    int        `json:"version"`
	OccurredAt time.Time  `json:"occurredAt"`
	Entry      *audit.Log `json:"entry"`
}

// NewAuditEvent wraps entry. The event id is the audit log id so consumers
// can deduplicate redeliveries.
func NewAuditEvent(entry *audit.Log) *AuditEvent {
	return &AuditEvent{
		EventID:    entry.ID,
		EventType:  EventTypeFor(entry.Action),
		Version:    EnvelopeVersion,
		OccurredAt: entry.ChangedAt,
		Entry:      entry,
	}
}

// EventTypeFor maps an action to "audit.<action>", e.g. "audit.restore".
func EventTypeFor(action audit.Action) string {
	return "audit." + strings.ToLower(action.String())
}

// Key partitions events by record so one row's history stays ordered.
func (e *AuditEvent) Key() string {
	return e.Entry.Table.String() + ":" + e.Entry.RecordID
}

func (e *AuditEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeAuditEvent parses an encoded event, rejecting unknown versions.
func DecodeAuditEvent(data []byte) (*AuditEvent, error) {
	var e AuditEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit event: %w", err)
	}
	if e.Version != EnvelopeVersion {
		return nil, fmt.Errorf("unsupported audit event version %d", e.Version)
	}
	if e.Entry == nil {
		return nil, fmt.Errorf("audit event %s has no entry", e.EventID)
	}
	return &e, nil
}
