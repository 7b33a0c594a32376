package audit

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Snapshot is the schema-less JSON image of a row. The audit table stores
// snapshots from many tables, so no per-table structure is imposed.
type Snapshot map[string]any

// SnapshotOf captures v through its JSON representation
func SnapshotOf(v any) (Snapshot, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("audit: marshal snapshot: %w", err)
	}
	return ParseSnapshot(raw)
}

// ParseSnapshot decodes a stored JSON object. Empty input and JSON null
// both yield a nil snapshot.
func ParseSnapshot(raw []byte) (Snapshot, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("audit: decode snapshot: %w", err)
	}
	return s, nil
}

// JSON encodes the snapshot; a nil snapshot encodes to nil bytes (SQL NULL)
func (s Snapshot) JSON() ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(map[string]any(s))
}

// DecodeInto writes the snapshot onto dst, overwriting only the keys present
func (s Snapshot) DecodeInto(dst any) error {
	raw, err := json.Marshal(map[string]any(s))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// Clone returns a shallow copy
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	maps.Copy(out, s)
	return out
}

// Without returns a copy with the given keys removed
func (s Snapshot) Without(keys ...string) Snapshot {
	out := s.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Has reports whether key is present
func (s Snapshot) Has(key string) bool {
	_, ok := s[key]
	return ok
}
