package audit

// identityFields covers every identity naming used across tracked tables
var identityFields = []string{"id", "ID", "Oid"}

var timestampFields = []string{
	"createdAt", "updatedAt",
	"created_at", "updated_at",
	"CreatedAt", "UpdatedAt",
	"INSERTDATE", "UPDATEDATE",
}

var metadataFields = []string{"INSERTUSER", "UPDATEUSER"}

// SanitizeForRestore prepares a deleted snapshot for re-insertion: identity
// and timestamp fields are dropped together with the table's restore
// exclusions. The input is not modified.
func SanitizeForRestore(t Table, s Snapshot) Snapshot {
	drop := make([]string, 0, len(identityFields)+len(timestampFields)+2)
	drop = append(drop, identityFields...)
	drop = append(drop, timestampFields...)
	drop = append(drop, t.RestoreExclusions()...)
	return s.Without(drop...)
}

// SanitizePatch removes keys a client may never set through an update:
// identity, timestamps and insert/update metadata.
func SanitizePatch(s Snapshot) Snapshot {
	drop := make([]string, 0, len(identityFields)+len(timestampFields)+len(metadataFields))
	drop = append(drop, identityFields...)
	drop = append(drop, timestampFields...)
	drop = append(drop, metadataFields...)
	return s.Without(drop...)
}
