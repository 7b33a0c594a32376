package persistence

import (
	"testing"

	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	for input, want := range map[string]string{
		"":                        "DESC",
		"asc":                     "ASC",
		"  Asc ":                  "ASC",
		"desc":                    "DESC",
		"sideways":                "DESC",
		"ASC; DELETE FROM roles;": "DESC",
	} {
		assert.Equal(t, want, ValidateSortOrder(input), "input %q", input)
	}
}

func TestValidateSortField(t *testing.T) {
	companies := trackedQueryFor(audit.TableAllowedCompanies)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty falls back", "", "FIELDNAME"},
		{"whitelisted column", "ACCOUNTNUMBER", "ACCOUNTNUMBER"},
		{"trimmed", "  STATUS ", "STATUS"},
		{"columns are case sensitive", "fieldname", "FIELDNAME"},
		{"column of another table", "UserName", "FIELDNAME"},
		{"metadata column", "INSERTDATE", "INSERTDATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, companies.sortFields, companies.defaultSort))
		})
	}
}

func TestTrackedQueryFor(t *testing.T) {
	for _, table := range audit.Tables() {
		t.Run(table.String(), func(t *testing.T) {
			q := trackedQueryFor(table)
			assert.True(t, q.sortFields[q.defaultSort], "default sort must be whitelisted")
			assert.True(t, q.sortFields[table.IdentityField()], "identity column must be sortable")
			assert.True(t, q.sortFields["INSERTDATE"])
			assert.NotEmpty(t, q.searchFields)
		})
	}
}

func TestOrderBy(t *testing.T) {
	col := orderBy("ORDER", "asc")
	assert.Equal(t, "ORDER", col.Column.Name)
	assert.False(t, col.Desc)

	col = orderBy("changed_at", "'; DROP TABLE audit_logs")
	assert.True(t, col.Desc)
}

func TestSortWhitelistsRejectInjection(t *testing.T) {
	payloads := []string{
		"changed_at; DROP TABLE audit_logs;--",
		"changed_at' OR '1'='1",
		"record_id UNION SELECT * FROM roles",
		"changed_by, (SELECT permissions FROM roles)",
		"action/**/;DELETE FROM promo_adds",
		"amount\n; DROP TABLE transaction_logs",
	}

	whitelists := map[string]struct {
		fields   map[string]bool
		fallback string
	}{
		"audit log":     {AuditLogSortFields, "changed_at"},
		"transactions":  {TransactionSortFields, "transacted_at"},
		"balances":      {BalanceSortFields, "balance_date"},
		"promo ads":     {trackedQueryFor(audit.TablePromoAds).sortFields, "ORDER"},
		"merchant user": {trackedQueryFor(audit.TableMerchantUsers).sortFields, "UserName"},
	}

	for name, wl := range whitelists {
		t.Run(name, func(t *testing.T) {
			for _, p := range payloads {
				assert.Equal(t, wl.fallback, ValidateSortField(p, wl.fields, wl.fallback), "payload %q", p)
				assert.Equal(t, "DESC", ValidateSortOrder(p))
			}
		})
	}
}
